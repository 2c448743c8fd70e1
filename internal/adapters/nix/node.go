package nix

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/devshell/internal/adapters/logger"
	"go.trai.ch/devshell/internal/adapters/settings"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
)

const (
	LockerNodeID     graft.ID = "adapter.nix.locker"
	ResolverNodeID   graft.ID = "adapter.nix.resolver"
	EnvFactoryNodeID graft.ID = "adapter.nix.env_factory"
	ManagerNodeID    graft.ID = "adapter.nix.manager"
)

func init() {
	graft.Register(graft.Node[ports.SourceLocker]{
		ID:        LockerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SourceLocker, error) {
			return NewLocker(), nil
		},
	})

	graft.Register(graft.Node[ports.DependencyResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.DependencyResolver, error) {
			s, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(domain.NixHubCachePath(s.CacheDir), s.NixHubURL, log,
				WithRetryPolicy(RetryPolicy{Tries: s.RetryTries, Delay: s.RetryDelay}))
		},
	})

	graft.Register(graft.Node[ports.EnvironmentFactory]{
		ID:        EnvFactoryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.EnvironmentFactory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewEnvFactory(log), nil
		},
	})

	graft.Register(graft.Node[ports.PackageManager]{
		ID:        ManagerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PackageManager, error) {
			return NewManager(), nil
		},
	})
}
