package ports

import "go.trai.ch/devshell/internal/core/domain"

// Hasher defines the interface for computing fingerprints.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Fingerprint hashes the inputs block of a descriptor.
	Fingerprint(d *domain.Descriptor) string

	// ComputeFileHash hashes the content of a file.
	ComputeFileHash(path string) (uint64, error)
}
