package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"mailadmin/backend/internal/auth"
	"mailadmin/backend/internal/config"
	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
	sqlstore "mailadmin/backend/internal/storage/sql"
)

// main 创建初始超级管理员账户。平台没有任何账户时 API 无法登录，
// 部署后先跑一次这个工具。
func main() {
	username := flag.String("username", "admin", "登录名")
	password := flag.String("password", "", "初始密码（必填）")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "error: -password is required")
		os.Exit(1)
	}
	if err := auth.ValidatePassword(*password); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Type == "" {
		fmt.Fprintln(os.Stderr, "error: MAILADMIN_DATABASE_TYPE must be set (in-memory storage has no persistence)")
		os.Exit(1)
	}

	store, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if _, err := store.GetUserByUsername(*username); err == nil {
		fmt.Fprintf(os.Stderr, "error: account %q already exists\n", *username)
		os.Exit(1)
	} else if err != storage.ErrUserNotFound {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to hash password: %v\n", err)
		os.Exit(1)
	}

	admin := &domain.User{
		ID:           uuid.NewString(),
		Username:     *username,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := store.CreateUser(admin); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create account: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("super admin %q created (id %s)\n", admin.Username, admin.ID)
}
