package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
)

// LocalStorage implements FileStorage interface using local filesystem.
// Each key maps to basePath/<key>, so a session scoped key lands in a per-session directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// Save writes a file to the local filesystem
func (l *LocalStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	outFile, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(outFile, r)
	if err != nil {
		outFile.Close()
		os.Remove(fullPath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(fullPath)
		return 0, fmt.Errorf("failed to close file: %w", err)
	}

	return n, nil
}

// Open opens the stored file for reading
func (l *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete deletes a file from local filesystem
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := l.resolve(key)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, domain.ErrObjectNotFound)
	}
	return err
}

// resolve maps a key to a path inside basePath, rejecting traversal
func (l *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%q: %w", key, domain.ErrInvalidKey)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%q: %w", key, domain.ErrInvalidKey)
		}
	}
	return filepath.Join(l.basePath, filepath.FromSlash(key)), nil
}
