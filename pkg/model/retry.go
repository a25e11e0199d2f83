package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// ErrRetriesExhausted wraps the last error once every attempt has failed.
var ErrRetriesExhausted = errors.New("model call retries exhausted")

// RetryConfig bounds model call retries.
type RetryConfig struct {
	// Attempts is the total number of calls made, including the first.
	Attempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts. Zero means no cap.
	MaxDelay time.Duration

	// Multiplier grows the delay after every failed attempt. Defaults to 2.
	Multiplier float64
}

// DefaultRetryConfig returns six attempts starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     6,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	mult := c.Multiplier
	if mult <= 0 {
		mult = 2
	}
	d := time.Duration(float64(c.InitialDelay) * math.Pow(mult, float64(attempt)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// permanentError marks errors that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// WithRetry wraps llm so that failed calls are retried with increasing
// delay. Context cancellation and Permanent errors stop immediately.
func WithRetry(llm LLM, cfg RetryConfig) LLM {
	if cfg.Attempts <= 1 {
		return llm
	}
	return &retryingLLM{LLM: llm, cfg: cfg, sleep: sleepContext}
}

type retryingLLM struct {
	LLM
	cfg   RetryConfig
	sleep func(context.Context, time.Duration) error
}

func (r *retryingLLM) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		if attempt > 0 {
			d := r.cfg.delay(attempt - 1)
			slog.Warn("Retrying model call",
				"model", r.Name(),
				"attempt", attempt+1,
				"max_attempts", r.cfg.Attempts,
				"delay", d,
				"error", lastErr)
			if err := r.sleep(ctx, d); err != nil {
				return nil, err
			}
		}

		resp, err := r.LLM.GenerateContent(ctx, req)
		if err == nil {
			return resp, nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.cfg.Attempts, lastErr)
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
