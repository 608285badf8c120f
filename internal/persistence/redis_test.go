package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/config"
)

func TestNewRedisConnects(t *testing.T) {
	srv := miniredis.RunT(t)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: srv.Addr(), PoolSize: 2, DialTimeout: time.Second}, zap.NewNop())
	defer r.Close()

	require.NoError(t, r.Ping(context.Background()))
	require.NoError(t, r.Client.Set(context.Background(), "k", "v", 0).Err())
	got, err := srv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisUnreachableStillReturnsClient(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	r := NewRedis(context.Background(), config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}, zap.NewNop())
	defer r.Close()

	require.NotNil(t, r.Client)
	assert.Error(t, r.Ping(context.Background()))
}

func TestNilRedisPing(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}
