// Package app implements the application layer for devshell.
package app

import (
	"context"
	"io"
	"os"
	"strconv"
	"time"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/devshell/internal/engine/activation"
	"go.trai.ch/devshell/internal/engine/steplog"
	"go.trai.ch/zerr"
)

// Options select the descriptor and platform an operation works on.
type Options struct {
	// File is the descriptor path or the directory holding it.
	File string
	// System overrides the current platform.
	System string
	// Frozen fails instead of changing the lock file.
	Frozen bool
	// Update re-pins every input.
	Update bool
}

// OptionsFrom derives operation options from the tool settings.
func OptionsFrom(s *domain.Settings) Options {
	return Options{File: s.File, System: s.System, Frozen: s.Frozen}
}

// App represents the main application logic.
type App struct {
	loader    ports.DescriptorLoader
	locks     ports.LockStore
	locker    ports.SourceLocker
	resolver  ports.DependencyResolver
	envs      ports.EnvironmentFactory
	store     ports.EnvironmentStore
	manager   ports.PackageManager
	executor  ports.Executor
	telemetry ports.Telemetry
	hasher    ports.Hasher
	watcher   ports.Watcher
	logger    ports.Logger

	settings *domain.Settings
	runner   *activation.Runner
	stdout   io.Writer
	stderr   io.Writer
	now      func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.DescriptorLoader,
	locks ports.LockStore,
	locker ports.SourceLocker,
	resolver ports.DependencyResolver,
	envs ports.EnvironmentFactory,
	store ports.EnvironmentStore,
	manager ports.PackageManager,
	executor ports.Executor,
	telemetry ports.Telemetry,
	hasher ports.Hasher,
	watcher ports.Watcher,
	logger ports.Logger,
) *App {
	a := &App{
		loader:    loader,
		locks:     locks,
		locker:    locker,
		resolver:  resolver,
		envs:      envs,
		store:     store,
		manager:   manager,
		executor:  executor,
		telemetry: telemetry,
		hasher:    hasher,
		watcher:   watcher,
		logger:    logger,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		now:       time.Now,
	}
	a.Configure(&domain.Settings{Shell: activation.DefaultShell})
	return a
}

// Configure applies tool settings that are not per-operation options.
func (a *App) Configure(s *domain.Settings) {
	a.settings = s
	a.runner = activation.NewRunner(a.executor, a.telemetry, a.logger,
		activation.WithShell(s.Shell),
		activation.WithPing(s.PingInterval))
}

// WithOutput redirects the output of activation steps and interactive shells.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// Evaluate loads the descriptor, brings the lock up to date, resolves the packages of the
// selected platform and materializes its environment. Repeated evaluations against an
// unchanged lock file return the same environment from the cache.
func (a *App) Evaluate(ctx context.Context, opts Options) (*domain.Environment, error) {
	desc, err := a.loader.Load(opts.File)
	if err != nil {
		return nil, err
	}
	return a.evaluate(ctx, desc, opts)
}

func (a *App) evaluate(ctx context.Context, desc *domain.Descriptor, opts Options) (*domain.Environment, error) {
	platform, spec, err := selectPlatform(desc, opts.System)
	if err != nil {
		return nil, err
	}

	lf, _, err := a.syncLock(ctx, desc, opts)
	if err != nil {
		return nil, err
	}

	plan, err := buildPlan(desc, lf, platform, spec)
	if err != nil {
		return nil, err
	}

	return a.materialize(ctx, plan, spec)
}

// selectPlatform validates the requested platform and returns its shell.
// An empty request selects the current platform.
func selectPlatform(desc *domain.Descriptor, system string) (domain.Platform, domain.ShellSpec, error) {
	platform := domain.CurrentPlatform()
	if system != "" {
		p, err := domain.ParsePlatform(system)
		if err != nil {
			return "", domain.ShellSpec{}, err
		}
		platform = p
	}

	spec, err := desc.Shell(platform)
	if err != nil {
		return "", domain.ShellSpec{}, err
	}
	return platform, spec, nil
}

// buildPlan binds every package of spec to a pinned reference from the lock file.
func buildPlan(
	desc *domain.Descriptor,
	lf *domain.Lockfile,
	platform domain.Platform,
	spec domain.ShellSpec,
) (*domain.ResolutionPlan, error) {
	plan := &domain.ResolutionPlan{
		Platform: platform,
		Inputs:   make(map[string]domain.PlanInput, len(desc.Inputs)),
	}

	for _, name := range desc.SourceNames() {
		locked, ok := lf.Sources[name]
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrLockOutdated, "source is not locked"), "source", name)
		}
		plan.Inputs[name] = domain.PlanInput{URL: locked.LockedURL, Follows: desc.Inputs[name].Follows}
	}

	if base, err := desc.DefaultInput(); err == nil {
		plan.Base = base
	}

	for _, pkg := range spec.UniquePackages() {
		if pkg.Versioned() {
			resolved, ok := lf.Packages[pkg.LockKey()]
			if !ok {
				return nil, zerr.With(zerr.Wrap(domain.ErrLockOutdated, "versioned package is not locked"),
					"package", pkg.String())
			}
			info, err := resolved.GetInfoForSystem(platform.String())
			if err != nil {
				return nil, err
			}
			plan.Entries = append(plan.Entries, domain.PlanEntry{
				Package:  pkg,
				FlakeRef: info.FlakeRef(),
				Attr:     info.AttrPath.String(),
			})
			continue
		}

		source, err := desc.SourceFor(pkg)
		if err != nil {
			return nil, err
		}
		plan.Entries = append(plan.Entries, domain.PlanEntry{
			Package:  pkg,
			Source:   source,
			FlakeRef: plan.Inputs[source].URL,
			Attr:     pkg.Attr,
		})
	}

	return plan, nil
}

// materialize returns the environment of plan, from the cache when possible.
func (a *App) materialize(
	ctx context.Context,
	plan *domain.ResolutionPlan,
	spec domain.ShellSpec,
) (*domain.Environment, error) {
	seq, err := spec.Activation()
	if err != nil {
		return nil, zerr.With(err, "platform", plan.Platform.String())
	}

	envID := domain.GenerateEnvID(plan.Fingerprint(spec.Env))
	env := &domain.Environment{
		ID:         envID,
		Platform:   plan.Platform,
		Activation: seq,
	}

	ctx, vertex := a.telemetry.Record(ctx, "materialize "+plan.Platform.String())

	rec, err := a.store.Get(envID)
	if err != nil {
		a.logger.Warn("ignoring unreadable environment cache: " + err.Error())
	}
	if rec != nil {
		vertex.Cached()
		vertex.Complete(nil)
		steplog.Status(a.logger, domain.LogLevelVerbose, "environment "+envID[:12], "(cached)")
		env.Vars = domain.MergeVars(rec.Vars, spec.Env)
		env.Cached = true
		return env, nil
	}

	var vars []string
	err = steplog.Run(a.logger, "materializing "+plan.Platform.String()+" shell", func(s *steplog.Step) error {
		s.AddPostfix(packageCount(len(plan.Entries)))
		var runErr error
		vars, runErr = a.envs.GetEnvironment(ctx, plan)
		return runErr
	}, steplog.WithPing(a.settings.PingInterval))
	vertex.Complete(err)
	if err != nil {
		return nil, err
	}

	if err := a.store.Put(domain.EnvRecord{
		ID:        envID,
		Platform:  plan.Platform,
		Vars:      vars,
		CreatedAt: a.now(),
	}); err != nil {
		a.logger.Warn("failed to cache environment: " + err.Error())
	}

	env.Vars = domain.MergeVars(vars, spec.Env)
	return env, nil
}

func packageCount(n int) string {
	if n == 1 {
		return "(1 package)"
	}
	return "(" + strconv.Itoa(n) + " packages)"
}
