package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return mr, client
}

func TestRedisSubstrateRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	s, err := NewSubstrate(client, "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Read(ctx, "userState")
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	require.NoError(t, s.Write(ctx, "userState", `{"accountId":7}`))
	got, err := s.Read(ctx, "userState")
	require.NoError(t, err)
	assert.Equal(t, `{"accountId":7}`, got)

	stored, err := mr.Get(DefaultPrefix + "userState")
	require.NoError(t, err)
	assert.Equal(t, `{"accountId":7}`, stored)
	assert.Zero(t, mr.TTL(DefaultPrefix+"userState"))

	require.NoError(t, s.Delete(ctx, "userState"))
	assert.False(t, mr.Exists(DefaultPrefix+"userState"))
}

func TestRedisSubstrateSurfacesUnavailableServer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s, err := NewSubstrate(client, "test:")
	require.NoError(t, err)
	mr.Close()

	_, err = s.Read(context.Background(), "userState")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestNewSubstrateRejectsNilClient(t *testing.T) {
	_, err := NewSubstrate(nil, "")
	require.ErrorContains(t, err, "redis client is nil")
}
