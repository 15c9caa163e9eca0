package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kbukum/statekit/provider"
)

var _ provider.ContextStore[any] = (*FileStore[any])(nil)

// FileStore is a provider.ContextStore that keeps one JSON file per key
// under a directory. Writes go through a temp file and a rename so a crash
// never leaves a half-written value behind.
type FileStore[C any] struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

type envelope[C any] struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Value     C          `json:"value"`
}

// NewFileStore creates dir if needed.
func NewFileStore[C any](dir string) (*FileStore[C], error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &FileStore[C]{dir: abs, now: time.Now}, nil
}

// Dir returns the absolute directory.
func (s *FileStore[C]) Dir() string { return s.dir }

func (s *FileStore[C]) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

// Load returns (nil, nil) for missing or expired keys. Expired files are removed.
func (s *FileStore[C]) Load(_ context.Context, key string) (*C, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	var env envelope[C]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", key, err)
	}
	if env.ExpiresAt != nil && s.now().After(*env.ExpiresAt) {
		_ = os.Remove(s.path(key))
		return nil, nil
	}
	return &env.Value, nil
}

// Save deletes the key when val is nil.
func (s *FileStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	if val == nil {
		return s.Delete(ctx, key)
	}
	env := envelope[C]{Value: *val}
	if ttl > 0 {
		exp := s.now().Add(ttl).UTC()
		env.ExpiresAt = &exp
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("storage: rename %s: %w", key, err)
	}
	return nil
}

// Delete is a no-op for missing keys.
func (s *FileStore[C]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}
