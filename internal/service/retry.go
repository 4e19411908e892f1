package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sakif/skill-sangam/internal/apperror"
)

// RetryPolicy bounds how hard a service tries to get a write through a
// contended database.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 25 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// withRetry runs fn until it succeeds, fails with a non-transient error or
// the policy gives up. The last error is returned unchanged.
func withRetry[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, op string, fn func() (T, error)) (T, error) {
	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		v, err := fn()
		if err != nil && !apperror.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, p.backOff(ctx), func(err error, wait time.Duration) {
		logger.Warn("retrying transient storage failure",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			errAttr(err),
		)
	})
}

// withRetryErr is withRetry for operations with no result.
func withRetryErr(ctx context.Context, p RetryPolicy, logger *slog.Logger, op string, fn func() error) error {
	_, err := withRetry(ctx, p, logger, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
