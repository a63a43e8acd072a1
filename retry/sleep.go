package retry

import (
	"context"
	"time"

	"github.com/dogmatiq/linger"
)

// Sleep blocks until delivery is due to be retried, or until ctx is canceled.
func Sleep(
	ctx context.Context,
	p Policy,
	attempts int,
	cause ...error,
) error {
	return linger.SleepUntil(ctx, p.NextRetry(
		time.Now(),
		attempts,
		cause,
	))
}
