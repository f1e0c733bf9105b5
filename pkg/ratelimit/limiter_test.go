package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valetkeys/valet-backend/pkg/config"
)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:       true,
		WindowSeconds: 60,
		Limit:         100,
		Burst:         20,
		RedisPrefix:   "valet:ratelimit",
	}
}

func TestAllowDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	db, _ := redismock.NewClientMock()
	limiter := NewLimiter(db, cfg)

	res, err := limiter.Allow(context.Background(), "GET:/api/v1/hooks", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 100, res.Remaining)
}

func TestAllowGranted(t *testing.T) {
	cfg := testConfig()
	db, mock := redismock.NewClientMock()
	limiter := NewLimiter(db, cfg)
	limiter.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	mock.Regexp().ExpectEvalSha(`.*`, []string{"valet:ratelimit:GET:/api/v1/hooks:10.0.0.1"}, `.*`, `.*`, `.*`, `.*`).
		SetVal([]interface{}{int64(1), "119", int64(0)})

	res, err := limiter.Allow(context.Background(), "GET:/api/v1/hooks", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 119, res.Remaining)
	assert.Equal(t, time.Duration(0), res.RetryAfter)
}

func TestAllowDenied(t *testing.T) {
	cfg := testConfig()
	db, mock := redismock.NewClientMock()
	limiter := NewLimiter(db, cfg)
	limiter.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	mock.Regexp().ExpectEvalSha(`.*`, []string{"valet:ratelimit:POST:/api/v1/retrieval/request:10.0.0.1"}, `.*`, `.*`, `.*`, `.*`).
		SetVal([]interface{}{int64(0), "0.4", int64(500)})

	res, err := limiter.Allow(context.Background(), "POST:/api/v1/retrieval/request", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 500*time.Millisecond, res.RetryAfter)
}
