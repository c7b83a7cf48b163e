package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrRetriesExhausted is returned (wrapping the last failure) when every attempt failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryConfig configures an Executor.
type RetryConfig struct {
	Timeout    time.Duration // Per-attempt deadline (default: 8s)
	MaxRetries int           // Retries after the first attempt (default: 3)
	BaseDelay  time.Duration // Delay before the first retry, doubled each retry (default: 500ms)
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Timeout:    8 * time.Second,
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
	}
}

// Executor runs an operation with a deadline per attempt and exponential backoff between attempts.
// It must only wrap idempotent calls: every retry re-issues the whole operation.
type Executor struct {
	cfg    RetryConfig
	logger *slog.Logger

	// sleep waits d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor.
func NewExecutor(cfg RetryConfig, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Config returns the executor configuration.
func (e *Executor) Config() RetryConfig {
	return e.cfg
}

// Do runs op until it succeeds or retries are exhausted.
//
// Each attempt gets its own deadline derived from ctx; exceeding it counts as a failure.
// Cancellation of ctx by the caller returns ctx.Err() immediately without further attempts.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	delay := e.cfg.BaseDelay

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", delay,
				"error", lastErr,
			)

			if err := e.sleep(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		err := e.attempt(ctx, op)
		if err == nil {
			return nil
		}

		// Caller gave up; this is not a failure of the call.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		lastErr = err
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, e.cfg.MaxRetries+1, lastErr)
}

func (e *Executor) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if e.cfg.Timeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	return op(attemptCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
