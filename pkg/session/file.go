package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/chartpad/pkg/errors"
)

// FileStore is a file-based session store for the CLI.
// Sessions are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	ttl     time.Duration
}

// NewFileStore creates a file-based session store in baseDir.
// If baseDir is empty, defaults to ~/.config/chartpad/sessions/
func NewFileStore(baseDir string, ttl time.Duration) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "chartpad", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create session dir")
	}
	return &FileStore{baseDir: baseDir, ttl: ttl}, nil
}

func (s *FileStore) sessionPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// SessionPath returns the file that holds session id. The id is validated
// so it cannot escape the store directory.
func (s *FileStore) SessionPath(id string) (string, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return "", err
	}
	return s.sessionPath(id), nil
}

func (s *FileStore) read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read session file")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse session %s", filepath.Base(path))
	}
	return &snap, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	path, err := s.SessionPath(id)
	if err != nil {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	snap, err := s.read(path)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if snap.IsExpired() {
		s.mu.Lock()
		os.Remove(path)
		s.mu.Unlock()
		return nil, ErrExpired
	}
	return snap, nil
}

func (s *FileStore) Set(ctx context.Context, snap *Snapshot) error {
	path, err := s.SessionPath(snap.ID)
	if err != nil {
		return err
	}
	stamp(snap, s.ttl)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "marshal session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write session file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStore, err, "write session file")
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	path, err := s.SessionPath(id)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStore, err, "remove session file")
	}
	return nil
}

// each calls fn for every readable session file.
func (s *FileStore) each(fn func(path string, snap *Snapshot)) error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "read session dir")
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if errors.ValidateSessionID(strings.TrimSuffix(name, ".json")) != nil {
			continue
		}
		path := filepath.Join(s.baseDir, name)
		snap, err := s.read(path)
		if err != nil {
			continue
		}
		fn(path, snap)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Summary
	err := s.each(func(_ string, snap *Snapshot) {
		if !snap.IsExpired() {
			out = append(out, snap.Summary())
		}
	})
	sortSummaries(out)
	return out, err
}

func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.each(func(path string, snap *Snapshot) {
		if snap.IsExpired() {
			os.Remove(path)
		}
	})
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
