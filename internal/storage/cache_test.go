package storage_test

import (
	"context"
	"testing"
	"time"

	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/storage"
	"nagarneuron/backend/internal/storage/storagetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedService(t *testing.T) (*storage.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return storage.NewStorageService(storagetest.DB(t), rdb, time.Minute, logger.Nop()), mr
}

func TestCache_GetSetJSON(t *testing.T) {
	ctx := context.Background()
	s, mr := newCachedService(t)
	c := s.Cache()

	var dst map[string]int
	ok, err := c.GetJSON(ctx, storage.StatsKey(), &dst)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetJSON(ctx, storage.StatsKey(), map[string]int{"total": 3}))
	assert.Equal(t, time.Minute, mr.TTL(storage.StatsKey()))

	ok, err = c.GetJSON(ctx, storage.StatsKey(), &dst)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, dst["total"])
}

func TestCache_DisabledWithoutRedis(t *testing.T) {
	c := storage.NewCache(nil, time.Minute)
	var dst map[string]int

	_, err := c.GetJSON(context.Background(), storage.StatsKey(), &dst)

	assert.ErrorIs(t, err, storage.ErrNoRedis)
	assert.NoError(t, c.SetJSON(context.Background(), storage.StatsKey(), 1))
}

func TestCache_InvalidatedAfterCommit(t *testing.T) {
	ctx := context.Background()
	s, mr := newCachedService(t)
	u := storagetest.CreateUser(t, s, "9700000000")
	require.NoError(t, mr.Set(storage.StatsKey(), "{}"))
	require.NoError(t, mr.Set(storage.LeaderboardKey(50), "[]"))
	require.NoError(t, mr.Set(storage.LeaderboardKey(10), "[]"))

	err := s.WithTx(ctx, func(tx storage.Storage) error {
		if err := tx.IncrementUserCounter(ctx, u.ID, "points", 5); err != nil {
			return err
		}
		assert.True(t, mr.Exists(storage.LeaderboardKey(50)), "invalidated before commit")
		return nil
	})
	require.NoError(t, err)

	assert.False(t, mr.Exists(storage.LeaderboardKey(50)))
	assert.False(t, mr.Exists(storage.LeaderboardKey(10)))
	assert.True(t, mr.Exists(storage.StatsKey()))

	storagetest.CreateComplaint(t, s, &u.ID, 12.9, 77.6)
	assert.False(t, mr.Exists(storage.StatsKey()))
}
