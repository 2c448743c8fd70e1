package nix_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/nix"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

var errFlaky = errors.New("connection reset")

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		gomock.InOrder(
			log.EXPECT().Warn("Function 'fetch' failed with error: connection reset"),
			log.EXPECT().Warn("  Type: *errors.errorString"),
			log.EXPECT().Warn("  Retry 2 of 3..."),
			log.EXPECT().Warn("Function 'fetch' failed with error: connection reset"),
			log.EXPECT().Warn("  Type: *errors.errorString"),
			log.EXPECT().Warn("  Retry 3 of 3..."),
		)

		calls := 0
		start := time.Now()
		got, err := nix.Retry(context.Background(), nix.RetryPolicy{Tries: 3, Delay: 5 * time.Second}, log, "fetch",
			func(context.Context) (string, error) {
				calls++
				if calls < 3 {
					return "", errFlaky
				}
				return "ok", nil
			})

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 10*time.Second, time.Since(start))
	})
}

func TestRetry_GivesUp(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Warn(gomock.Any()).Times(3)

		calls := 0
		_, err := nix.Retry(context.Background(), nix.RetryPolicy{Tries: 2, Delay: time.Second}, log, "fetch",
			func(context.Context) (int, error) {
				calls++
				return 0, errFlaky
			})

		require.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 2, calls)
	})
}

func TestRetry_NotRetryable(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	calls := 0
	policy := nix.RetryPolicy{
		Tries:     5,
		Delay:     time.Second,
		Retryable: func(err error) bool { return !errors.Is(err, domain.ErrPackageNotFound) },
	}
	_, err := nix.Retry(context.Background(), policy, log, "resolve", func(context.Context) (int, error) {
		calls++
		return 0, domain.ErrPackageNotFound
	})

	require.ErrorIs(t, err, domain.ErrPackageNotFound)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelledDuringDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Warn(gomock.Any()).AnyTimes()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := nix.Retry(ctx, nix.RetryPolicy{Tries: 5, Delay: time.Minute}, log, "fetch",
			func(context.Context) (int, error) { return 0, errFlaky })

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRetry_InvalidPolicy(t *testing.T) {
	_, err := nix.Retry(context.Background(), nix.RetryPolicy{}, nil, "fetch",
		func(context.Context) (int, error) { return 1, nil })

	require.ErrorIs(t, err, domain.ErrInvalidRetryPolicy)
}
