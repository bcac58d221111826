package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeGit, "clone failed")

	assert.Equal(t, ErrCodeGit, err.Code)
	assert.Equal(t, "clone failed", err.Message)
	assert.Equal(t, SeverityError, err.Severity)
	assert.False(t, err.Recoverable)
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, ErrCodeNetworkUnavailable, "sync failed")

	require.NotNil(t, err)
	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "sync failed")
	assert.Contains(t, err.Error(), "connection reset")

	assert.Nil(t, Wrap(nil, ErrCodeInternal, "never happens"))
}

func TestWrapInheritsContext(t *testing.T) {
	inner := New(ErrCodeAPIRequest, "bad request").WithContext("http_status", 400)
	outer := Wrap(inner, ErrCodeUploadFailed, "upload failed")

	assert.Equal(t, 400, outer.Context["http_status"])
}

func TestErrorIs(t *testing.T) {
	err := New(ErrCodeAuthenticationFailed, "login rejected")
	target := New(ErrCodeAuthenticationFailed, "different message")

	assert.True(t, errors.Is(err, target))
	assert.False(t, errors.Is(err, New(ErrCodeGit, "other")))
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantCode    ErrorCode
		recoverable bool
	}{
		{"rate limited", 429, ErrCodeAPIRateLimited, true},
		{"server error", 503, ErrCodeAPIServer, true},
		{"client error", 404, ErrCodeAPIRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := APIError("request failed", tt.status, nil)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.recoverable, err.Recoverable)
			assert.Equal(t, tt.status, HTTPStatus(err))
		})
	}
}

func TestHTTPStatusNonAppError(t *testing.T) {
	assert.Equal(t, 0, HTTPStatus(fmt.Errorf("plain error")))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(New(ErrCodeInternal, "x").AsRecoverable()))
	assert.False(t, IsRecoverable(New(ErrCodeInternal, "x")))
	assert.False(t, IsRecoverable(fmt.Errorf("plain")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeRepoSyncFailed, GetErrorCode(New(ErrCodeRepoSyncFailed, "x")))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(fmt.Errorf("plain")))
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	config := DefaultRetryConfig()
	config.InitialDelay = time.Millisecond
	config.Jitter = false
	config.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	err := Retry(context.Background(), config, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return New(ErrCodeServiceUnavailable, "temporarily down")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	config := DefaultRetryConfig()
	config.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	err := Retry(context.Background(), config, func(ctx context.Context) error {
		calls++
		return New(ErrCodeValidationFailed, "bad input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxRetries = 2
	config.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	err := Retry(context.Background(), config, func(ctx context.Context) error {
		calls++
		return New(ErrCodeNetworkUnavailable, "unreachable").AsRecoverable()
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, ErrCodeResourceExhausted, GetErrorCode(err))
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := DefaultRetryConfig()
	config.InitialDelay = time.Hour

	err := Retry(ctx, config, func(ctx context.Context) error {
		return New(ErrCodeServiceUnavailable, "down")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelayBackoff(t *testing.T) {
	config := &RetryConfig{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, 1*time.Second, calculateDelay(0, config))
	assert.Equal(t, 2*time.Second, calculateDelay(1, config))
	assert.Equal(t, 4*time.Second, calculateDelay(2, config))
	assert.Equal(t, 30*time.Second, calculateDelay(10, config))
}
