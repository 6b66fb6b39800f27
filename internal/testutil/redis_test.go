package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	s, client := NewRedis(t)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, s.Exists("k"))
}

func TestRedisConfig(t *testing.T) {
	s, _ := NewRedis(t)
	cfg := RedisConfig(t, s)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, s.Addr(), cfg.Addr())
}

func TestQuietLogger(t *testing.T) {
	assert.NotNil(t, QuietLogger().Out)
}
