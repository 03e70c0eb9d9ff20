package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage defines the interface for receipt photo storage
type Storage interface {
	// Save writes a photo and returns the name to fetch it by
	Save(name string, data []byte) (string, error)

	// Get reads a photo by name
	Get(name string) ([]byte, error)

	// Delete removes a photo
	Delete(name string) error
}

// LocalStorage implements the Storage interface on a local directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the photo directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// pathFor resolves a stored name, refusing anything that would leave the
// storage directory
func (l *LocalStorage) pathFor(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid photo name: %q", name)
	}
	return filepath.Join(l.basePath, name), nil
}

// Save writes a photo to the storage directory
func (l *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := l.pathFor(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get reads a photo from the storage directory
func (l *LocalStorage) Get(name string) ([]byte, error) {
	path, err := l.pathFor(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a photo from the storage directory
func (l *LocalStorage) Delete(name string) error {
	path, err := l.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
