package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// FileStore persists every user's override set in a single JSON document,
// written atomically via a temp file rename. Suitable for the small user
// populations this engine serves.
type FileStore struct {
	path string

	mu      sync.RWMutex
	records map[string]fileRecord
	loaded  bool
}

type fileRecord struct {
	Overrides Set  `json:"overrides"`
	Meta      Meta `json:"meta"`
}

// NewFileStore stores the document at path. The file is created on first
// save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context, userID string) (Set, Meta, bool, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, Meta{}, false, err
	}
	s.mu.RLock()
	record, ok := s.records[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return record.Overrides.Clone(), record.Meta, true, nil
}

func (s *FileStore) Save(_ context.Context, userID string, set Set, meta Meta) (Meta, error) {
	if err := s.ensureLoaded(); err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = fileRecord{Overrides: set.Clone(), Meta: meta}
	if err := s.flushLocked(); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

func (s *FileStore) ensureLoaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	s.records = map[string]fileRecord{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("overrides: read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("overrides: parse %s: %w", s.path, err)
	}
	s.loaded = true
	return nil
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("overrides: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("overrides: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("overrides: rename %s: %w", tmp, err)
	}
	return nil
}
