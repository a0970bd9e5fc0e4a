package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestWithRetry(t *testing.T) {
	transient := &RetryableError{Err: errors.New("503"), Retryable: true}
	permanent := errors.New("bad request")

	tests := []struct {
		wantErr      error
		results      []error
		wantDelays   []time.Duration
		name         string
		wantAttempts int
	}{
		{
			name:         "succeeds first time",
			results:      []error{nil},
			wantAttempts: 1,
		},
		{
			name:         "retries transient errors with backoff",
			results:      []error{transient, transient, nil},
			wantAttempts: 3,
			wantDelays:   []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:         "stops on permanent error",
			results:      []error{permanent},
			wantAttempts: 1,
			wantErr:      permanent,
		},
		{
			name:         "gives up after max attempts",
			results:      []error{transient, transient, transient},
			wantAttempts: 3,
			wantErr:      ErrMaxRetries,
			wantDelays:   []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:         "rate limit waits max delay",
			results:      []error{ErrRateLimit, nil},
			wantAttempts: 2,
			wantDelays:   []time.Duration{30 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			attempts := 0
			err := WithRetry(context.Background(), func() error {
				res := tt.results[attempts]
				attempts++
				return res
			}, RetryOptions{MaxAttempts: 3, Sleep: recordingSleep(&delays)})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantDelays, delays)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return &RetryableError{Err: errors.New("timeout"), Retryable: true}
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "page", "Oslo")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"page":"Oslo"`)

	_, err = NewLogger(&buf, slog.LevelInfo, "xml")
	assert.Error(t, err)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save", inner)
	assert.Equal(t, "could not save: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
}
