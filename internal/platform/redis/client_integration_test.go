//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"termo/internal/platform/config"
	"termo/pkg/testutil/containers"
)

func TestNewConnects(t *testing.T) {
	rc := containers.NewRedisContainer(t)

	c, err := New(context.Background(), config.RedisConfig{URL: rc.Addr, PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Health(context.Background()))
}
