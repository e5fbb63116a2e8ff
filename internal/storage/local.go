// Package storage 原始文件的对象存储
// 核心流程只依赖 "按键存字节、拿回引用" 这一个契约
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// LocalStore 本地磁盘实现
type LocalStore struct {
	dir string
}

// NewLocalStore 创建本地文件存储
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Save 保存字节并返回可回取的存储引用
func (s *LocalStore) Save(filename string, data []byte) (string, error) {
	safe := unsafeNameRe.ReplaceAllString(filepath.Base(filename), "_")
	ref := fmt.Sprintf("%s_%s", uuid.New().String()[:8], safe)

	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}
	return ref, nil
}

// Load 按引用读回字节
func (s *LocalStore) Load(ref string) ([]byte, error) {
	// 引用不允许越出存储目录
	if strings.Contains(ref, "/") || strings.Contains(ref, "..") {
		return nil, fmt.Errorf("invalid storage ref: %s", ref)
	}
	return os.ReadFile(filepath.Join(s.dir, ref))
}
