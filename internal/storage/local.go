package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// LocalStorage writes artifacts under a media root on disk. This is the
// default backend.
type LocalStorage struct {
	root string
}

func NewLocal(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

func (s *LocalStorage) Save(_ context.Context, key string, data []byte) (string, error) {
	fullPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}
	return fullPath, nil
}

func (s *LocalStorage) ServeFile(w http.ResponseWriter, r *http.Request, fullPath, filename string) error {
	if _, err := os.Stat(fullPath); err != nil {
		return err
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, fullPath)
	return nil
}
