package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// boundedBackOff keeps every jittered wait inside [min, max].
type boundedBackOff struct {
	inner    backoff.BackOff
	min, max time.Duration
}

func (b *boundedBackOff) NextBackOff() time.Duration {
	d := b.inner.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if d < b.min {
		d = b.min
	}
	if b.max > 0 && d > b.max {
		d = b.max
	}
	return d
}

func (b *boundedBackOff) Reset() { b.inner.Reset() }

// newRetryPolicy builds an exponential, jittered policy allowing attempts
// total tries that stops early when ctx is done.
func newRetryPolicy(ctx context.Context, attempts int, min, max time.Duration) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = min
	exp.MaxInterval = max
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.5
	exp.MaxElapsedTime = 0
	exp.Reset()

	var b backoff.BackOff = &boundedBackOff{inner: exp, min: min, max: max}
	if attempts < 1 {
		attempts = 1
	}
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}
