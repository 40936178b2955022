package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	repo "storefront/internal/repository"

	"github.com/google/uuid"
)

// root以下に画像を書き込み、<baseURL>/storage/<path> で配信する。
type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Root() string {
	return s.root
}

// <dir>/<uuid><ext> に保存し、その相対pathを返す。
func (s *LocalStorage) Save(ctx context.Context, dir string, file repo.FileUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := path.Join(cleanDir(dir), uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(full, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return rel, nil
}

func (s *LocalStorage) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == "" {
		return nil
	}

	full := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+p)))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(p string) string {
	if p == "" {
		return ""
	}
	return s.baseURL + "/storage/" + strings.TrimLeft(p, "/")
}

// dirをroot内に収める
func cleanDir(dir string) string {
	return strings.TrimLeft(path.Clean("/"+dir), "/")
}
