package composio

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rendis/composiotools/pkg/schema"
)

const (
	defaultMaxRetries = 2
	defaultRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 2 * time.Second
)

// retryPolicy governs retries of idempotent (GET) requests.
type retryPolicy struct {
	maxRetries int
	delay      time.Duration
}

func newRetryPolicy(maxRetries int, delay time.Duration) retryPolicy {
	switch {
	case maxRetries < 0:
		maxRetries = 0
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return retryPolicy{maxRetries: maxRetries, delay: delay}
}

// backoff returns the exponential delay before retry number attempt
// (0-based), capped at maxRetryDelay.
func (p retryPolicy) backoff(attempt int) time.Duration {
	d := p.delay
	for i := 0; i < attempt && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

// isRetryable reports whether a failed vendor call may succeed on retry:
// transport errors, 429 and 5xx responses. Cancellation never retries.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var te *schema.ToolsetError
	if errors.As(err, &te) {
		if status, ok := te.Details["status_code"].(int); ok {
			return status == http.StatusTooManyRequests || status >= 500
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// waitBackoff sleeps for delay or returns early with ctx's error.
func waitBackoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
