package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/tariff/internal/service"
)

var (
	// ErrRateLimit is returned by spreadsheet calls rejected for quota.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries wraps the last error once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError overrides the retry decision for the error it wraps.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err, Retryable: false}
}

// DefaultRetryOptions suit Google Sheets reads and writes.
var DefaultRetryOptions = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultRetryOptions.MaxAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = DefaultRetryOptions.Multiplier
	}
	return opts
}

// WithRetry calls operation until it succeeds, the attempts run out or ctx
// is done, backing off exponentially between attempts. A rate limit waits
// out MaxDelay. Errors wrapped with Permanent end the loop at once and are
// returned unwrapped.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)
	delay := opts.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		var marked *RetryableError
		switch {
		case errors.As(lastErr, &marked) && !marked.Retryable:
			return marked.Err
		case errors.Is(lastErr, context.Canceled):
			return lastErr
		case attempt == opts.MaxAttempts:
			continue
		}

		wait := delay
		if errors.Is(lastErr, ErrRateLimit) {
			wait = opts.MaxDelay
		}
		slog.Warn("Spreadsheet call failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", lastErr)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, lastErr)
}
