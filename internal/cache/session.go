// Package cache holds the best-effort local copies the capture flow
// keeps around: the active punch-in session (offline fallback) and a
// short-TTL firms list. Neither is a system of record.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fieldforce/punchkit-go/internal/domain/punch"
)

const sessionFileName = "active_punch_in.json"

// Memory is the in-memory session cache, used in tests and as a
// fallback when no cache directory is writable.
type Memory struct {
	mu   sync.Mutex
	sess *punch.Session
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Read(ctx context.Context) (punch.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return punch.Session{}, punch.ErrCacheMiss
	}
	return *m.sess, nil
}

func (m *Memory) Write(ctx context.Context, session punch.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &session
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

// File persists the session as a single JSON document under the cache
// directory. Writes are last-writer-wins via an atomic rename; there
// is no cross-process locking, so concurrent writers may clobber each
// other.
type File struct {
	path string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &File{path: filepath.Join(dir, sessionFileName)}, nil
}

func (f *File) Read(ctx context.Context) (punch.Session, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return punch.Session{}, punch.ErrCacheMiss
		}
		return punch.Session{}, fmt.Errorf("failed to read session cache: %w", err)
	}
	var sess punch.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A torn or corrupted entry reads as a miss, not a fault.
		return punch.Session{}, punch.ErrCacheMiss
	}
	return sess, nil
}

func (f *File) Write(ctx context.Context, session punch.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session cache: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session cache: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session cache: %w", err)
	}
	return nil
}

func (f *File) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session cache: %w", err)
	}
	return nil
}

var (
	_ punch.CacheRepository = (*Memory)(nil)
	_ punch.CacheRepository = (*File)(nil)
)
