package maildir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage 是邮件物理存储的协作方接口。域或邮箱改名时由业务层调用，
// 同一次改名只允许调用一次 Rename（操作不保证幂等）。
type Storage interface {
	// HomePath 推导某个邮箱的主目录路径。
	HomePath(domainName, localPart string) string
	// Rename 将邮箱主目录从旧路径移动到新路径。
	Rename(oldPath, newPath string) error
}

// FS 基于本地文件系统实现邮件存储目录管理。
type FS struct {
	root string
}

// NewFS 创建文件系统邮件存储，root 为存储根目录。
func NewFS(root string) *FS {
	return &FS{root: root}
}

// HomePath 返回 <root>/<域名>/<本地部分>。
func (f *FS) HomePath(domainName, localPart string) string {
	return filepath.Join(f.root, domainName, localPart)
}

// Rename 移动邮箱主目录。目录不存在时视为成功（邮箱还没收过信）。
func (f *FS) Rename(oldPath, newPath string) error {
	if _, err := os.Stat(oldPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("failed to prepare mail home parent: %w", err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to move mail home: %w", err)
	}
	return nil
}

// Noop 只推导路径，不触碰文件系统。用于关闭目录迁移的部署
// （物理存储由投递系统自己维护时）。
type Noop struct {
	root string
}

// NewNoop 创建空操作邮件存储。
func NewNoop(root string) *Noop {
	return &Noop{root: root}
}

// HomePath 与 FS 的推导规则一致。
func (n *Noop) HomePath(domainName, localPart string) string {
	return filepath.Join(n.root, domainName, localPart)
}

// Rename 什么都不做。
func (n *Noop) Rename(oldPath, newPath string) error { return nil }

// Recorder 记录改名调用，用于测试替身。
type Recorder struct {
	root  string
	Moves [][2]string
}

// NewRecorder 创建测试用邮件存储。
func NewRecorder(root string) *Recorder {
	return &Recorder{root: root}
}

// HomePath 与 FS 的推导规则一致。
func (r *Recorder) HomePath(domainName, localPart string) string {
	return filepath.Join(r.root, domainName, localPart)
}

// Rename 只记录调用，不触碰文件系统。
func (r *Recorder) Rename(oldPath, newPath string) error {
	r.Moves = append(r.Moves, [2]string{oldPath, newPath})
	return nil
}
