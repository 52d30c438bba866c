package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// FSStore keeps payloads as files under a base directory. Writes go
// through a temporary file and an atomic rename so readers never see a
// partial payload.
type FSStore struct {
	mu       sync.RWMutex
	basePath string
	closed   bool
}

var _ Store = (*FSStore)(nil)

// NewFS creates a filesystem store rooted at basePath, creating the
// directory when missing.
func NewFS(basePath string) (*FSStore, error) {
	if basePath == "" {
		return nil, errors.New("blob base path is required")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}

	info, err := os.Stat(basePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("blob base path is not a directory")
	}

	return &FSStore{basePath: basePath}, nil
}

// keyPath maps the opaque key onto the filesystem. Keys use forward
// slashes as separators.
func (s *FSStore) keyPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// Put writes the payload via tmp file + rename.
func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	path := s.keyPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Get reads the payload.
func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Delete removes the payload file.
func (s *FSStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	err := os.Remove(s.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close marks the store closed.
func (s *FSStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
