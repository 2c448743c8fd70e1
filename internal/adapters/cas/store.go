// Package cas implements the content addressed cache of materialized environments.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.EnvironmentStore = (*Store)(nil)

var validID = regexp.MustCompile(`^[0-9a-f]{16,64}$`)

// Store implements ports.EnvironmentStore with one JSON file per environment ID.
type Store struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]domain.EnvRecord
}

// NewStore creates a new EnvironmentStore rooted at dir.
func NewStore(dir string) (*Store, error) {
	cleanDir := filepath.Clean(dir)
	if err := os.MkdirAll(cleanDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create environment cache"), "dir", cleanDir)
	}
	return &Store{
		dir:   cleanDir,
		cache: make(map[string]domain.EnvRecord),
	}, nil
}

// Get retrieves the environment with the given ID. Returns nil, nil if not found.
func (s *Store) Get(id string) (*domain.EnvRecord, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rec, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return &rec, nil
	}

	path := s.pathFor(id)
	//nolint:gosec // Path is built from the cache dir and a validated ID
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read environment cache"), "path", path)
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to unmarshal environment cache"), "path", path)
	}

	s.mu.Lock()
	s.cache[id] = rec
	s.mu.Unlock()

	return &rec, nil
}

// Put stores the environment.
func (s *Store) Put(rec domain.EnvRecord) error {
	if err := checkID(rec.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal environment")
	}

	path := s.pathFor(rec.ID)
	if err := WriteFileAtomic(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", path)
	}

	s.mu.Lock()
	s.cache[rec.ID] = rec
	s.mu.Unlock()

	return nil
}

func (s *Store) pathFor(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func checkID(id string) error {
	if !validID.MatchString(id) {
		return zerr.With(zerr.Wrap(domain.ErrCacheMiss, "invalid environment id"), "id", id)
	}
	return nil
}
