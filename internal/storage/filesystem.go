package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"seacert/pkg/platform/sentinel"
)

// FileStore persists object bytes under a root directory, one file per key.
// Keys map to relative paths; traversal outside the root is rejected.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("file store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("file store: create root: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Upload(_ context.Context, destinationKey string, content []byte) (string, error) {
	path, err := s.resolve(destinationKey)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("%w: create object directory: %v", sentinel.ErrUnavailable, err)
	}
	if err := os.WriteFile(path, content, 0o640); err != nil {
		return "", fmt.Errorf("%w: write object: %v", sentinel.ErrUnavailable, err)
	}
	return destinationKey, nil
}

func (s *FileStore) Fetch(_ context.Context, storagePath string) ([]byte, error) {
	path, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%w: read object: %v", sentinel.ErrUnavailable, err)
	}
	return content, nil
}

func (s *FileStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file store: key is required")
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("file store: key %q escapes the store root", key)
	}
	return path, nil
}
