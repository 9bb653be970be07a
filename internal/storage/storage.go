// Package storage persists small pieces of client state (tokens, wizard
// drafts) as a single JSON file on disk.  The file is read once when the
// store is constructed; afterwards all reads hit the in-memory mirror and
// every write rewrites the file.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a mutex-guarded string-to-string map mirrored to a JSON file.
// Values are opaque to the store; callers serialize structured state (such
// as the wizard draft) themselves.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// Open loads the state file at path, creating parent directories as needed.
// A missing file yields an empty store; a corrupt file is discarded rather
// than failing startup, since every value kept here can be re-acquired (a
// session can be re-established, a draft re-entered).
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &Store{path: path, values: map[string]string{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.values); err != nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// Get returns the value stored under key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and rewrites the state file.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Delete removes key and rewrites the state file.  Deleting an absent key is
// a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

// flushLocked writes the mirror to disk.  The file is written atomically via
// a temp file so an interrupted write cannot truncate existing state.
func (s *Store) flushLocked() error {
	raw, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
