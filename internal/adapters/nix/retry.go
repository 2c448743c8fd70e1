package nix

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

// RetryPolicy bounds how often a transient failure is retried.
type RetryPolicy struct {
	// Tries is the total number of attempts, including the first.
	Tries int
	// Delay is the pause between attempts.
	Delay time.Duration
	// Retryable decides whether an error is worth another attempt. Nil retries everything.
	Retryable func(error) bool
}

// DefaultRetryPolicy tries five times with five seconds in between.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Tries: 5, Delay: 5 * time.Second}
}

// Retry calls fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx is done. Every failed attempt that is retried is logged as a warning.
func Retry[T any](
	ctx context.Context,
	policy RetryPolicy,
	log ports.Logger,
	name string,
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T
	if policy.Tries <= 0 {
		return zero, zerr.With(zerr.Wrap(domain.ErrInvalidRetryPolicy, "cannot retry"), "tries", policy.Tries)
	}

	var lastErr error
	for attempt := range policy.Tries {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if policy.Retryable != nil && !policy.Retryable(err) {
			return zero, err
		}
		if attempt+1 == policy.Tries {
			break
		}

		log.Warn(fmt.Sprintf("Function '%s' failed with error: %v", name, err))
		log.Warn(fmt.Sprintf("  Type: %s", errorType(err)))
		log.Warn(fmt.Sprintf("  Retry %d of %d...", attempt+2, policy.Tries))

		timer := time.NewTimer(policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, zerr.Wrap(ctx.Err(), lastErr.Error())
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// errorType names the innermost error of the chain.
func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	if m, ok := err.(interface{ Message() string }); ok {
		return m.Message()
	}
	return fmt.Sprintf("%T", err)
}
