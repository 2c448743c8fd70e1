package ports

import "go.trai.ch/devshell/internal/core/domain"

// DescriptorLoader defines the interface for loading an environment descriptor.
//
//go:generate go run go.uber.org/mock/mockgen -source=descriptor_loader.go -destination=mocks/mock_descriptor_loader.go -package=mocks
type DescriptorLoader interface {
	// Load reads the descriptor at path, merges its local overlay and validates the result.
	Load(path string) (*domain.Descriptor, error)
}
