package ports

import "go.trai.ch/devshell/internal/core/domain"

// EnvironmentStore defines the interface for caching materialized environments.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type EnvironmentStore interface {
	// Get retrieves the environment with the given ID.
	// Returns nil, nil if not found.
	Get(id string) (*domain.EnvRecord, error)

	// Put stores the environment.
	Put(rec domain.EnvRecord) error
}

// LockStore defines the interface for persisting lock files.
type LockStore interface {
	// Read loads the lock file at path.
	// Returns nil, nil if the file does not exist.
	Read(path string) (*domain.Lockfile, error)

	// Write replaces the lock file at path atomically.
	Write(path string, lf *domain.Lockfile) error
}
