package app_test

import (
	"context"
	"iter"
	"os"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/app"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestApp_Lock_CreatesLockFile(t *testing.T) {
	f := newFixture(t)
	desc := newDescriptor()
	f.loader.EXPECT().Load("").Return(desc, nil)
	f.locks.EXPECT().Read(lockPath).Return(nil, nil)
	f.hasher.EXPECT().Fingerprint(desc).Return(descHash)

	f.locker.EXPECT().Lock(gomock.Any(), desc.Inputs["nixpkgs"]).
		Return(domain.LockedSource{URL: nixpkgsURL, LockedURL: nixpkgsPin, Rev: "abc"}, nil)
	resolved := goPackage()
	f.resolver.EXPECT().Resolve(gomock.Any(), "go", "1.24").Return(&resolved, nil)

	var written *domain.Lockfile
	f.locks.EXPECT().Write(lockPath, gomock.Any()).DoAndReturn(func(_ string, lf *domain.Lockfile) error {
		written = lf
		return nil
	})

	require.NoError(t, f.app.Lock(t.Context(), app.LockOptions{}))

	require.NotNil(t, written)
	assert.Equal(t, newLockfile(), written)
}

func TestApp_Lock_UpToDate(t *testing.T) {
	f := newFixture(t)
	f.expectLocked(newDescriptor())

	require.NoError(t, f.app.Lock(t.Context(), app.LockOptions{}))
}

func TestApp_Lock_Update(t *testing.T) {
	f := newFixture(t)
	f.expectLocked(newDescriptor())

	f.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).
		Return(domain.LockedSource{URL: nixpkgsURL, LockedURL: "github:NixOS/nixpkgs/new", Rev: "new"}, nil)
	resolved := goPackage()
	f.resolver.EXPECT().Resolve(gomock.Any(), "go", "1.24").Return(&resolved, nil)

	var written *domain.Lockfile
	f.locks.EXPECT().Write(lockPath, gomock.Any()).DoAndReturn(func(_ string, lf *domain.Lockfile) error {
		written = lf
		return nil
	})

	opts := app.LockOptions{Options: app.Options{Update: true}}
	require.NoError(t, f.app.Lock(t.Context(), opts))
	assert.Equal(t, "github:NixOS/nixpkgs/new", written.Sources["nixpkgs"].LockedURL)
	assert.Equal(t, goPackage(), written.Packages["go@1.24"])
}

func TestApp_Lock_RemovedInput(t *testing.T) {
	f := newFixture(t)
	desc := newDescriptor()
	f.loader.EXPECT().Load("").Return(desc, nil)

	lf := newLockfile()
	lf.Sources["unstable"] = domain.LockedSource{URL: "github:NixOS/nixpkgs", LockedURL: "github:NixOS/nixpkgs/old"}
	f.locks.EXPECT().Read(lockPath).Return(lf, nil)
	f.hasher.EXPECT().Fingerprint(desc).Return(descHash)

	var written *domain.Lockfile
	f.locks.EXPECT().Write(lockPath, gomock.Any()).DoAndReturn(func(_ string, lf *domain.Lockfile) error {
		written = lf
		return nil
	})

	require.NoError(t, f.app.Lock(t.Context(), app.LockOptions{}))
	assert.NotContains(t, written.Sources, "unstable")
	assert.Contains(t, written.Sources, "nixpkgs")
}

func TestApp_Lock_Frozen(t *testing.T) {
	f := newFixture(t)
	desc := newDescriptor()
	f.loader.EXPECT().Load("").Return(desc, nil)
	f.locks.EXPECT().Read(lockPath).Return(nil, nil)
	f.hasher.EXPECT().Fingerprint(desc).Return(descHash)

	err := f.app.Lock(t.Context(), app.LockOptions{Options: app.Options{Frozen: true}})
	require.ErrorIs(t, err, domain.ErrLockOutdated)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, []string{"create devshell.lock", "lock input nixpkgs", "resolve go@1.24"}, zErr.Metadata()["changes"])
}

func TestApp_Lock_LockerFailure(t *testing.T) {
	f := newFixture(t)
	desc := newDescriptor()
	f.loader.EXPECT().Load("").Return(desc, nil)
	f.locks.EXPECT().Read(lockPath).Return(nil, nil)
	f.hasher.EXPECT().Fingerprint(desc).Return(descHash)
	f.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).
		Return(domain.LockedSource{}, zerr.Wrap(domain.ErrSourceLockFailed, "offline"))

	err := f.app.Lock(t.Context(), app.LockOptions{})
	require.ErrorIs(t, err, domain.ErrSourceLockFailed)
}

func TestApp_Evaluate_UnlockedVersionedPackageWhenFrozen(t *testing.T) {
	f := newFixture(t)
	desc := newDescriptor()
	f.loader.EXPECT().Load("").Return(desc, nil)

	lf := newLockfile()
	delete(lf.Packages, "go@1.24")
	f.locks.EXPECT().Read(lockPath).Return(lf, nil)
	f.hasher.EXPECT().Fingerprint(desc).Return(descHash)

	_, err := f.app.Evaluate(t.Context(), app.Options{Frozen: true})
	require.ErrorIs(t, err, domain.ErrLockOutdated)
}

func TestApp_Lock_Watch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		desc := newDescriptor()
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		f.loader.EXPECT().Load("").Return(desc, nil).Times(2)
		f.hasher.EXPECT().Fingerprint(desc).Return(descHash).Times(2)
		gomock.InOrder(
			f.locks.EXPECT().Read(lockPath).Return(newLockfile(), nil),
			f.locks.EXPECT().Read(lockPath).DoAndReturn(func(string) (*domain.Lockfile, error) {
				cancel()
				return newLockfile(), nil
			}),
		)

		overlay := "/proj/devshell.local.yaml"
		f.hasher.EXPECT().ComputeFileHash(descPath).Return(uint64(1), nil)
		f.hasher.EXPECT().ComputeFileHash(descPath).Return(uint64(2), nil)
		f.hasher.EXPECT().ComputeFileHash(overlay).Return(uint64(0), os.ErrNotExist).Times(2)

		f.watcher.EXPECT().Start(gomock.Any(), []string{descPath, "/proj/devshell.local.yaml"}).Return(nil)
		f.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
			for _, p := range []string{descPath, descPath, "/proj/devshell.local.yaml"} {
				if !yield(ports.WatchEvent{Path: p, Operation: ports.OpWrite}) {
					return
				}
			}
		}))
		f.watcher.EXPECT().Stop().Return(nil)

		err := f.app.Lock(ctx, app.LockOptions{Watch: true})
		require.NoError(t, err)
	})
}

func TestApp_Lock_Watch_UnchangedContent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		desc := newDescriptor()
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		f.expectLocked(desc)

		overlay := "/proj/devshell.local.yaml"
		f.hasher.EXPECT().ComputeFileHash(descPath).Return(uint64(1), nil)
		f.hasher.EXPECT().ComputeFileHash(descPath).DoAndReturn(func(string) (uint64, error) {
			cancel()
			return 1, nil
		})
		f.hasher.EXPECT().ComputeFileHash(overlay).Return(uint64(0), os.ErrNotExist).Times(2)

		f.watcher.EXPECT().Start(gomock.Any(), gomock.Any()).Return(nil)
		f.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
			yield(ports.WatchEvent{Path: descPath, Operation: ports.OpWrite})
		}))
		f.watcher.EXPECT().Stop().Return(nil)

		require.NoError(t, f.app.Lock(ctx, app.LockOptions{Watch: true}))
	})
}
