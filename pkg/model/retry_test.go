package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyLLM struct {
	failures int
	err      error
	calls    int
}

func (f *flakyLLM) Name() string       { return "flaky" }
func (f *flakyLLM) Provider() Provider { return ProviderScripted }
func (f *flakyLLM) Close() error       { return nil }

func (f *flakyLLM) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &Response{FinishReason: FinishReasonStop}, nil
}

func newTestRetry(llm LLM, cfg RetryConfig) (*retryingLLM, *[]time.Duration) {
	var delays []time.Duration
	r := WithRetry(llm, cfg).(*retryingLLM)
	r.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return r, &delays
}

func TestWithRetry_RecoversFromTransientFailures(t *testing.T) {
	inner := &flakyLLM{failures: 2, err: errors.New("503 unavailable")}
	r, delays := newTestRetry(inner, RetryConfig{Attempts: 6, InitialDelay: time.Second, MaxDelay: 30 * time.Second})

	resp, err := r.GenerateContent(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, FinishReasonStop, resp.FinishReason)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestWithRetry_Exhausted(t *testing.T) {
	cause := errors.New("503 unavailable")
	inner := &flakyLLM{failures: 100, err: cause}
	r, delays := newTestRetry(inner, RetryConfig{Attempts: 4, InitialDelay: time.Second, MaxDelay: 3 * time.Second})

	_, err := r.GenerateContent(context.Background(), &Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 4, inner.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, *delays)
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	inner := &flakyLLM{failures: 100, err: Permanent(errors.New("400 bad request"))}
	r, delays := newTestRetry(inner, DefaultRetryConfig())

	_, err := r.GenerateContent(context.Background(), &Request{})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 1, inner.calls)
	assert.Empty(t, *delays)
}

func TestWithRetry_ContextCancelledDuringWait(t *testing.T) {
	inner := &flakyLLM{failures: 100, err: errors.New("timeout")}
	r := WithRetry(inner, DefaultRetryConfig()).(*retryingLLM)
	r.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := r.GenerateContent(context.Background(), &Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetry_SingleAttemptIsPassthrough(t *testing.T) {
	inner := &flakyLLM{}
	assert.Same(t, LLM(inner), WithRetry(inner, RetryConfig{Attempts: 1}))
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(errors.New("x")))
}
