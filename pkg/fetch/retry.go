package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds repeated attempts of a failing operation with a fixed
// delay between attempts.
type RetryPolicy struct {
	Attempts int           // Total attempts including the first
	Delay    time.Duration // Fixed pause between attempts
}

// DefaultRetryPolicy is three attempts with a two second pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 2 * time.Second}
}

// Do runs op up to p.Attempts times, pausing p.Delay between attempts.
// The last attempt's error is returned. Cancelling ctx stops further attempts.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(op, b)
}
