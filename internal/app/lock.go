package app

import (
	"context"
	"maps"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/engine/debounce"
	"go.trai.ch/devshell/internal/engine/steplog"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// LockOptions configure the lock operation.
type LockOptions struct {
	Options
	// Watch re-locks whenever the descriptor or its overlay changes.
	Watch bool
}

// Lock brings the lock file of the descriptor up to date. With Watch set it keeps running
// until ctx is cancelled.
func (a *App) Lock(ctx context.Context, opts LockOptions) error {
	desc, err := a.lockOnce(ctx, opts.Options)
	if err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	return a.watchLock(ctx, desc.Path, opts.Options)
}

func (a *App) lockOnce(ctx context.Context, opts Options) (*domain.Descriptor, error) {
	desc, err := a.loader.Load(opts.File)
	if err != nil {
		return nil, err
	}

	_, changes, err := a.syncLock(ctx, desc, opts)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		steplog.Status(a.logger, domain.LogLevelSuccess, "lock file is up to date")
		return desc, nil
	}
	steplog.Status(a.logger, domain.LogLevelSuccess, "updated "+domain.LockFileName, changes...)
	return desc, nil
}

// watchLock re-locks after every burst of changes to the descriptor or its overlay.
// Errors are logged and the loop keeps watching until ctx is cancelled.
func (a *App) watchLock(ctx context.Context, path string, opts Options) error {
	paths := []string{path, domain.OverlayPathFor(path)}
	if err := a.watcher.Start(ctx, paths); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	trigger := make(chan struct{}, 1)
	debouncer := debounce.New(debounce.DefaultWindow, func([]string) {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	go func() {
		for ev := range a.watcher.Events() {
			debouncer.Add(ev.Path)
		}
	}()

	last := a.contentHashes(paths)
	steplog.Status(a.logger, domain.LogLevelInfo, "watching "+path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			sums := a.contentHashes(paths)
			if slices.Equal(sums, last) {
				a.logger.Debug("descriptor content unchanged")
				continue
			}
			last = sums
			if _, err := a.lockOnce(ctx, opts); err != nil {
				a.logger.Error(err)
			}
		}
	}
}

// contentHashes hashes each file in paths. A missing file hashes to zero.
func (a *App) contentHashes(paths []string) []uint64 {
	sums := make([]uint64, len(paths))
	for i, p := range paths {
		if sum, err := a.hasher.ComputeFileHash(p); err == nil {
			sums[i] = sum
		}
	}
	return sums
}

// syncLock returns a lock file that pins every input and versioned package of desc.
// The returned changes describe how it differs from the lock file on disk; the file is
// rewritten only when there are changes and opts.Frozen is unset.
func (a *App) syncLock(
	ctx context.Context,
	desc *domain.Descriptor,
	opts Options,
) (*domain.Lockfile, []string, error) {
	path := domain.LockPathFor(desc.Path)
	current, err := a.locks.Read(path)
	if err != nil {
		return nil, nil, err
	}

	var changes []string
	if current == nil {
		changes = append(changes, "create "+domain.LockFileName)
		current = domain.NewLockfile()
	}

	hash := a.hasher.Fingerprint(desc)
	if current.DescriptorHash != hash && len(changes) == 0 {
		changes = append(changes, "descriptor changed")
	}

	next := domain.NewLockfile()
	next.DescriptorHash = hash

	ctx, vertex := a.telemetry.Record(ctx, "lock")
	err = steplog.Run(a.logger, "locking inputs", func(s *steplog.Step) error {
		srcChanges, err := a.lockSources(ctx, desc, current, next, opts)
		if err != nil {
			return err
		}
		pkgChanges, err := a.resolvePackages(ctx, desc, current, next, opts)
		if err != nil {
			return err
		}
		changes = append(changes, srcChanges...)
		changes = append(changes, pkgChanges...)
		if len(changes) == 0 {
			s.AddPostfix("(unchanged)")
		}
		return nil
	}, steplog.WithLevel(domain.LogLevelVerbose), steplog.WithPing(a.settings.PingInterval))
	vertex.Complete(err)
	if err != nil {
		return nil, nil, err
	}

	slices.Sort(changes)
	if len(changes) == 0 {
		return current, nil, nil
	}

	if opts.Frozen {
		err := zerr.With(zerr.Wrap(domain.ErrLockOutdated, "refusing to update a frozen lock file"), "path", path)
		return nil, nil, zerr.With(err, "changes", changes)
	}

	if err := a.locks.Write(path, next); err != nil {
		return nil, nil, err
	}
	return next, changes, nil
}

// lockSources pins each input. Entries whose declaration is unchanged are reused unless
// opts.Update asks for fresh revisions.
func (a *App) lockSources(
	ctx context.Context,
	desc *domain.Descriptor,
	current, next *domain.Lockfile,
	opts Options,
) ([]string, error) {
	var changes []string
	for _, name := range desc.SourceNames() {
		ref := desc.Inputs[name]
		if prev, ok := current.Sources[name]; ok && prev.Matches(ref) && !opts.Update {
			next.Sources[name] = prev
			continue
		}
		if opts.Frozen {
			changes = append(changes, "lock input "+name)
			continue
		}

		locked, err := a.locker.Lock(ctx, ref)
		if err != nil {
			return nil, err
		}
		next.Sources[name] = locked

		if prev, ok := current.Sources[name]; !ok || prev.LockedURL != locked.LockedURL || !prev.Matches(ref) {
			changes = append(changes, "lock input "+name)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(current.Sources)) {
		if _, ok := desc.Inputs[name]; !ok {
			changes = append(changes, "remove input "+name)
		}
	}
	return changes, nil
}

// resolvePackages pins every versioned package declared by any output.
func (a *App) resolvePackages(
	ctx context.Context,
	desc *domain.Descriptor,
	current, next *domain.Lockfile,
	opts Options,
) ([]string, error) {
	wanted := make(map[string]domain.PackageRef)
	for _, p := range desc.Platforms() {
		for _, pkg := range desc.Outputs[p].Packages {
			if pkg.Versioned() {
				wanted[pkg.LockKey()] = pkg
			}
		}
	}

	var (
		mu      sync.Mutex
		changes []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, key := range slices.Sorted(maps.Keys(wanted)) {
		if prev, ok := current.Packages[key]; ok && !opts.Update {
			mu.Lock()
			next.Packages[key] = prev
			mu.Unlock()
			continue
		}
		if opts.Frozen {
			mu.Lock()
			changes = append(changes, "resolve "+key)
			mu.Unlock()
			continue
		}

		pkg := wanted[key]
		g.Go(func() error {
			resolved, err := a.resolver.Resolve(gctx, pkg.Attr, pkg.Version)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			next.Packages[key] = *resolved
			if prev, ok := current.Packages[key]; !ok || !samePins(prev, *resolved) {
				changes = append(changes, "resolve "+key)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, key := range slices.Sorted(maps.Keys(current.Packages)) {
		if _, ok := wanted[key]; !ok {
			changes = append(changes, "remove "+key)
		}
	}
	return changes, nil
}

func samePins(a, b domain.ResolvedPackage) bool {
	if a.Version != b.Version || len(a.Systems) != len(b.Systems) {
		return false
	}
	for sys, info := range a.Systems {
		if b.Systems[sys] != info {
			return false
		}
	}
	return true
}
