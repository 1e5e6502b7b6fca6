package querycache

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

// DefaultShouldRetry retries timeouts, network failures, 5xx, 408 and 429.
// Other client errors and a missing token are returned immediately.
func DefaultShouldRetry(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, planetsdk.ErrNotAuthenticated), errors.Is(err, planetsdk.ErrEvidence):
		return false
	}

	var apiErr *planetsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == planetsdk.KindHTTP {
		switch code := apiErr.StatusCode; {
		case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
			return true
		case code >= 400 && code < 500:
			return false
		}
	}
	return true
}

// newBackOff doubles from base up to maxDelay, retrying at most retries times.
func newBackOff(ctx context.Context, base, maxDelay time.Duration, retries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.MaxInterval = maxDelay
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(retries, 0))), ctx)
}

// retry runs op, retrying errors the policy accepts. Once ctx is done the
// last attempt's error is returned rather than the bare context error, so a
// classified timeout from the client survives.
func (c *Cache) retry(ctx context.Context, what string, retries int, op func(context.Context) error) error {
	var (
		attempt int
		lastErr error
	)
	run := func() error {
		attempt++
		err := op(ctx)
		lastErr = err
		if err != nil && (ctx.Err() != nil || !c.cfg.ShouldRetry(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		c.logger.Debug("retrying", "what", what, "attempt", attempt, "next", next, "err", err)
	}

	err := backoff.RetryNotify(run, newBackOff(ctx, c.cfg.RetryDelay, c.cfg.MaxRetryDelay, retries), notify)
	if err != nil && lastErr != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return lastErr
	}
	return err
}
