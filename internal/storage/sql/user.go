package sql

import (
	"errors"

	"gorm.io/gorm"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
)

// ========== User Repository ==========

// CreateUser 创建账户
func (s *Store) CreateUser(user *domain.User) error {
	err := s.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrUserExists
	}
	return err
}

// UpdateUser 更新账户
func (s *Store) UpdateUser(user *domain.User) error {
	result := s.db.Model(&domain.User{}).Where("id = ?", user.ID).
		Select("username", "email", "password_hash", "role", "is_active", "updated_at", "last_login_at").
		Updates(map[string]interface{}{
			"username":      user.Username,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"role":          user.Role,
			"is_active":     user.IsActive,
			"updated_at":    user.UpdatedAt,
			"last_login_at": user.LastLoginAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// GetUser 根据 ID 获取账户
func (s *Store) GetUser(id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 根据登录名获取账户（不区分大小写）
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := s.db.First(&user, "lower(username) = lower(?)", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers 列出全部账户（按登录名排序）
func (s *Store) ListUsers() ([]domain.User, error) {
	var users []domain.User
	if err := s.db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser 删除账户
func (s *Store) DeleteUser(id string) error {
	result := s.db.Delete(&domain.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}
