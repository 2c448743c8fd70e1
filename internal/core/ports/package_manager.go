package ports

import (
	"context"

	"go.trai.ch/devshell/internal/core/domain"
)

// SourceLocker pins a declared source to an exact revision.
//
//go:generate go run go.uber.org/mock/mockgen -source=package_manager.go -destination=mocks/mock_package_manager.go -package=mocks
type SourceLocker interface {
	// Lock resolves the source's flake reference to a locked reference.
	Lock(ctx context.Context, src domain.SourceRef) (domain.LockedSource, error)
}

// DependencyResolver handles resolving a package version to a specific Nixpkgs commit.
type DependencyResolver interface {
	// Resolve resolves a package identifier (e.g., "go@1.21") to its per-system Nixpkgs pins.
	// It should check the cache first, then query the NixHub API.
	Resolve(ctx context.Context, name, version string) (*domain.ResolvedPackage, error)
}

// PackageManager handles evaluating and realizing planned packages.
type PackageManager interface {
	// Probe evaluates every planned package without building it and returns their names.
	// It works for platforms other than the host's.
	Probe(ctx context.Context, plan *domain.ResolutionPlan) ([]string, error)

	// Build realizes every planned package in the store and returns the output paths.
	Build(ctx context.Context, plan *domain.ResolutionPlan) ([]string, error)
}
