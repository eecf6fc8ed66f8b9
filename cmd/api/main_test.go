package main

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cefib-pe/cefib-admin-api/internal/ratelimit"
	"github.com/cefib-pe/cefib-admin-api/pkg/config"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func TestLimiterStoreMemoryWarnsPerInstance(t *testing.T) {
	logr, logs := observedLogger()
	cfg := &config.Config{RateLimit: config.RateLimitConfig{Backend: config.RateLimitBackendMemory}}

	store, memory := limiterStore(cfg, nil, logr)

	require.NotNil(t, memory)
	assert.Same(t, memory, store)
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "per instance")
}

func TestLimiterStoreRedisWithoutClientIsFlagged(t *testing.T) {
	logr, logs := observedLogger()
	cfg := &config.Config{RateLimit: config.RateLimitConfig{Backend: config.RateLimitBackendRedis}}

	store, memory := limiterStore(cfg, nil, logr)

	require.NotNil(t, memory)
	assert.Same(t, memory, store)
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "falling back")
}

func TestLimiterStoreRedis(t *testing.T) {
	logr, logs := observedLogger()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cfg := &config.Config{RateLimit: config.RateLimitConfig{Backend: config.RateLimitBackendRedis}}

	store, memory := limiterStore(cfg, client, logr)

	assert.Nil(t, memory)
	_, ok := store.(*ratelimit.RedisStore)
	assert.True(t, ok)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}
