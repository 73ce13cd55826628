package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"loan-intake/internal/common/config"
	"loan-intake/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RequestTimeout:    time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"broken pipe", true},
		{"NOT_FOUND: process not found", false},
		{"INVALID_ARGUMENT: bad variables", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(fmt.Errorf("%s", tt.msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		code errors.ErrorCode
	}{
		{"unavailable", "connection refused", errors.ErrCodeWorkflowUnavailable},
		{"timeout", "deadline exceeded", errors.ErrCodeWorkflowUnavailable},
		{"not found", "process not found", errors.ErrCodeInvalidRequest},
		{"invalid argument", "invalid argument: variables", errors.ErrCodeInvalidRequest},
		{"other", "permission denied", errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapZeebeError(fmt.Errorf("%s", tt.msg), "create-instance", 0)
			assert.Equal(t, tt.code, errors.AsStandardError(err).Code)
		})
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(cfg, 0))
	assert.Equal(t, 4*time.Second, backoff(cfg, 2))
	assert.Equal(t, 5*time.Second, backoff(cfg, 5))
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("retries transient errors then succeeds", func(t *testing.T) {
		calls := 0
		result, err := fastClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, fmt.Errorf("unavailable")
			}
			return "ok", nil
		}, "op")
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		calls := 0
		_, err := fastClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("not found")
		}, "op")
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, errors.ErrCodeInvalidRequest, errors.AsStandardError(err).Code)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := fastClient(2).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("connection reset")
		}, "op")
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, errors.AsStandardError(err).Retryable)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		c := fastClient(5)
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
			return nil, fmt.Errorf("timeout")
		}, "op")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 5000})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, DefaultRetryConfig, cfg.RetryConfig)
}
