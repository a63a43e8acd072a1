// Package retry provides policies for scheduling repeat delivery attempts of
// outbox records.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy is an interface for determining when a failed delivery attempt
// should next be retried.
type Policy interface {
	NextRetry(now time.Time, attempts int, cause []error) time.Time
}

// ExponentialBackoff is a retry policy that uses exponential backoff.
type ExponentialBackoff struct {
	Min    time.Duration
	Max    time.Duration
	Jitter float64
}

// NextRetry returns the time at which delivery should next be attempted.
func (p ExponentialBackoff) NextRetry(
	now time.Time,
	attempts int,
	_ []error,
) time.Time {
	return now.Add(
		p.delay(attempts),
	)
}

// delay returns the time to wait after the n'th failed attempt.
func (p ExponentialBackoff) delay(n int) time.Duration {
	s := math.Pow(2, float64(n)) * p.Min.Seconds()

	if s > p.Max.Seconds() {
		s = p.Max.Seconds()
	}

	s *= 1 + (rand.Float64() * p.Jitter)

	return time.Duration(
		s * float64(time.Second),
	)
}
