package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

const (
	maxRetryAttempts = 5
	retryBaseDelay   = 2 * time.Second
	retryMaxDelay    = 60 * time.Second
)

// sleepFunc waits for the given duration or until the context is done.
// Injectable so retry tests run without real waits.
type sleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryDelay returns the wait before retry N: min(60s, 2s * 2^(N-1)).
func retryDelay(retry int) time.Duration {
	d := retryBaseDelay << (retry - 1)
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	return d
}

// withRetry runs fn up to maxRetryAttempts times, backing off between
// attempts when fn reports throttling. Any other error propagates
// immediately. When every attempt is throttled the final rate-limit signal
// is wrapped in a BackendError.
func withRetry(ctx context.Context, sleep sleepFunc, fn func() error) error {
	if sleep == nil {
		sleep = defaultSleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rateLimited *domain.RateLimitError
		if !errors.As(err, &rateLimited) {
			return err
		}
		lastErr = err

		if attempt == maxRetryAttempts {
			break
		}

		delay := retryDelay(attempt)
		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", maxRetryAttempts).
			Dur("delay", delay).
			Msg("rate limited, backing off before retry")
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return &domain.BackendError{Message: "retry interrupted: " + sleepErr.Error(), Err: lastErr}
		}
	}

	return &domain.BackendError{
		Message: fmt.Sprintf("rate limited after %d attempts", maxRetryAttempts),
		Err:     lastErr,
	}
}
