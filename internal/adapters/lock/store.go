// Package lock persists lock files as indented JSON.
package lock

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/devshell/internal/adapters/cas"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.LockStore = (*Store)(nil)

// Store implements ports.LockStore.
type Store struct{}

// NewStore creates a new LockStore.
func NewStore() *Store {
	return &Store{}
}

// Read loads the lock file at path. Returns nil, nil if the file does not exist.
func (s *Store) Read(path string) (*domain.Lockfile, error) {
	//nolint:gosec // path is derived from the descriptor location
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read lock file"), "path", path)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	lf := domain.NewLockfile()
	if err := dec.Decode(lf); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidLockfile, err.Error()), "path", path)
	}

	if lf.Version != domain.LockfileVersion {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidLockfile, "unsupported lock file version"), "path", path)
		return nil, zerr.With(err, "version", lf.Version)
	}

	if lf.Sources == nil {
		lf.Sources = make(map[string]domain.LockedSource)
	}
	if lf.Packages == nil {
		lf.Packages = make(map[string]domain.ResolvedPackage)
	}
	return lf, nil
}

// Write replaces the lock file at path atomically. Keys are written in sorted order.
func (s *Store) Write(path string, lf *domain.Lockfile) error {
	data, err := Encode(lf)
	if err != nil {
		return err
	}

	if err := cas.WriteFileAtomic(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write lock file"), "path", path)
	}
	return nil
}

// Encode renders lf the way it is stored on disk.
func Encode(lf *domain.Lockfile) ([]byte, error) {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to marshal lock file")
	}
	return append(data, '\n'), nil
}
