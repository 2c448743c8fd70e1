package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/devshell/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/lock"               //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/nix"                //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/settings"           //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			lock.NodeID,
			nix.LockerNodeID,
			nix.ResolverNodeID,
			nix.EnvFactoryNodeID,
			nix.ManagerNodeID,
			cas.NodeID,
			shell.NodeID,
			progrock.NodeID,
			fs.HasherNodeID,
			watcher.NodeID,
			logger.NodeID,
			settings.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			settings.LoaderNodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			loader, err := graft.Dep[ports.SettingsLoader](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(app, log, loader, telemetry), nil
		},
	})
}

//nolint:cyclop // One lookup per port.
func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.DescriptorLoader](ctx)
	if err != nil {
		return nil, err
	}
	locks, err := graft.Dep[ports.LockStore](ctx)
	if err != nil {
		return nil, err
	}
	locker, err := graft.Dep[ports.SourceLocker](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.DependencyResolver](ctx)
	if err != nil {
		return nil, err
	}
	envs, err := graft.Dep[ports.EnvironmentFactory](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.EnvironmentStore](ctx)
	if err != nil {
		return nil, err
	}
	manager, err := graft.Dep[ports.PackageManager](ctx)
	if err != nil {
		return nil, err
	}
	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}
	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	s, err := graft.Dep[*domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	a := New(loader, locks, locker, resolver, envs, store, manager, executor, telemetry, hasher, w, log)
	a.Configure(s)
	return a, nil
}
