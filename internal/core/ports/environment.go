// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/devshell/internal/core/domain"
)

// EnvironmentFactory materializes development environments from a resolution plan.
//
// Implementations are responsible for:
//   - Evaluating every planned package against its pinned source revision
//   - Realizing the packages in the store
//   - Constructing the exported variables (PATH and friends) of the shell
//
//go:generate go run go.uber.org/mock/mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentFactory interface {
	// GetEnvironment constructs the shell environment of a plan.
	//
	// Returns environment variables as "KEY=VALUE" strings suitable for process execution.
	// An unknown package fails the whole call; the result is never silently empty.
	GetEnvironment(ctx context.Context, plan *domain.ResolutionPlan) ([]string, error)
}
