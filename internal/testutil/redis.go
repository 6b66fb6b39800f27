// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/liquidity-lens/internal/config"
)

// NewRedis starts a miniredis server and a client bound to it. Both are
// closed when the test ends.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

// RedisConfig points an enabled RedisConfig at s.
func RedisConfig(t testing.TB, s *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	host, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		t.Fatalf("split miniredis addr %q: %v", s.Addr(), err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("parse miniredis port %q: %v", port, err)
	}
	return config.RedisConfig{Enabled: true, Host: host, Port: p}
}

// QuietLogger returns a logrus logger that discards output.
func QuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
