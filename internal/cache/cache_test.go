package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Entries []string `json:"entries"`
	Total   int      `json:"total"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "leaderboard:p1", page{Entries: []string{"a", "b"}, Total: 2}, time.Minute))

	var got page
	hit, err := c.GetJSON(ctx, "leaderboard:p1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, got.Total)

	mr.FastForward(2 * time.Minute)
	hit, err = c.GetJSON(ctx, "leaderboard:p1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)
	var got page
	hit, err := c.GetJSON(context.Background(), "nope", &got)
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"leaderboard:1", "leaderboard:2", "profile:alice"} {
		require.NoError(t, c.SetJSON(ctx, k, page{}, time.Minute))
	}

	require.NoError(t, c.DeletePrefix(ctx, LeaderboardPrefix))

	assert.False(t, mr.Exists("leaderboard:1"))
	assert.False(t, mr.Exists("leaderboard:2"))
	assert.True(t, mr.Exists("profile:alice"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	c.Close()

	_, err = Connect(context.Background(), "::not a url")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	hit, err := c.GetJSON(context.Background(), "k", &page{})
	assert.False(t, hit)
	assert.NoError(t, err)
}
