package sync

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"solum-sync-service/internal/logger"
)

// withRetry runs op up to attempts times with exponential backoff and
// jitter: delay doubles each attempt, plus up to half the delay of random
// jitter so concurrent clients don't hammer the server in lockstep.
func withRetry(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		delay := base * (1 << uint(i))
		delay += time.Duration(rand.Int63n(int64(delay/2) + 1))
		logger.Log.Warn("Operation failed, retrying",
			zap.Int("attempt", i+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
