package nix

import (
	"context"
	"encoding/json"
	"maps"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceLocker = (*Locker)(nil)

// Locker implements ports.SourceLocker with `nix flake metadata`.
type Locker struct {
	run Runner
}

// NewLocker creates a Locker running the nix binary.
func NewLocker() *Locker {
	return NewLockerWithRunner(ExecRunner)
}

// NewLockerWithRunner creates a Locker with a custom runner.
func NewLockerWithRunner(run Runner) *Locker {
	return &Locker{run: run}
}

// Lock pins the source to the revision its reference currently points at.
func (l *Locker) Lock(ctx context.Context, src domain.SourceRef) (domain.LockedSource, error) {
	output, err := l.run(ctx, "flake", "metadata", "--json", "--refresh", src.URL)
	if err != nil {
		return domain.LockedSource{}, lockError(err, src)
	}

	var meta flakeMetadata
	if err := json.Unmarshal(output, &meta); err != nil {
		return domain.LockedSource{}, lockError(zerr.Wrap(err, "failed to parse flake metadata"), src)
	}

	if meta.URL == "" {
		return domain.LockedSource{}, lockError(zerr.New("flake metadata has no locked url"), src)
	}

	rev := meta.Revision
	if rev == "" {
		rev = meta.Locked.Rev
	}
	lastModified := meta.LastModified
	if lastModified == 0 {
		lastModified = meta.Locked.LastModified
	}

	return domain.LockedSource{
		URL:          src.URL,
		LockedURL:    meta.URL,
		Rev:          rev,
		NarHash:      meta.Locked.NarHash,
		LastModified: lastModified,
		Follows:      maps.Clone(src.Follows),
	}, nil
}

func lockError(err error, src domain.SourceRef) error {
	lockErr := zerr.With(zerr.Wrap(domain.ErrSourceLockFailed, err.Error()), "source", src.Name)
	lockErr = zerr.With(lockErr, "url", src.URL)
	if stderr := metadataString(err, "stderr"); stderr != "" {
		lockErr = zerr.With(lockErr, "stderr", stderr)
	}
	return lockErr
}

// metadataString returns the first string metadata value stored under key in err's chain.
func metadataString(err error, key string) string {
	for err != nil {
		if zErr, ok := err.(*zerr.Error); ok {
			if v, ok := zErr.Metadata()[key].(string); ok {
				return v
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
