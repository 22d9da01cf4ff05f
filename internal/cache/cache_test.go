package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() account.Stats {
	return account.Stats{
		Total:    4,
		Active:   3,
		Inactive: 1,
		CountsByRole: map[account.Role]int{
			account.RolePatient: 3,
			account.RoleAdmin:   1,
		},
	}
}

func TestTTL_Expires(t *testing.T) {
	now := time.Now()
	c := NewTTL[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	v, ok = c.Get("k")
	assert.False(t, ok, "an entry is gone once its TTL has elapsed")
	assert.Zero(t, v)
}

func TestMemoryStatsCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStatsCache(time.Minute)

	_, ok := m.GetStats(ctx)
	assert.False(t, ok)

	m.SetStats(ctx, m.Generation(ctx), sampleStats())
	got, ok := m.GetStats(ctx)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)

	got.CountsByRole[account.RoleLab] = 99
	again, _ := m.GetStats(ctx)
	assert.NotContains(t, again.CountsByRole, account.RoleLab, "callers must not mutate the cached map")

	m.Invalidate(ctx)
	_, ok = m.GetStats(ctx)
	assert.False(t, ok)
}

func TestMemoryStatsCache_DropsSnapshotsFromBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStatsCache(time.Minute)

	gen := m.Generation(ctx)
	m.Invalidate(ctx) // a write committed while the stats were being counted
	m.SetStats(ctx, gen, sampleStats())

	_, ok := m.GetStats(ctx)
	assert.False(t, ok, "snapshot computed before the write must not be cached")

	m.SetStats(ctx, m.Generation(ctx), sampleStats())
	_, ok = m.GetStats(ctx)
	assert.True(t, ok)
}

func TestRedisStatsCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c := NewRedisStatsCache(rdb, time.Minute, nil)
	require.NoError(t, c.Ping(ctx))

	_, ok := c.GetStats(ctx)
	assert.False(t, ok)

	assert.Equal(t, int64(0), c.Generation(ctx))
	c.SetStats(ctx, 0, sampleStats())
	assert.True(t, mr.Exists(StatsKey))

	got, ok := c.GetStats(ctx)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)

	mr.FastForward(2 * time.Minute)
	_, ok = c.GetStats(ctx)
	assert.False(t, ok, "entry should expire with the ttl")

	c.SetStats(ctx, c.Generation(ctx), sampleStats())
	c.Invalidate(ctx)
	assert.False(t, mr.Exists(StatsKey))
	assert.Equal(t, int64(1), c.Generation(ctx))
}

func TestRedisStatsCache_DropsSnapshotsFromBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	// two replicas sharing redis
	reader := NewRedisStatsCache(rdb, time.Minute, nil)
	writer := NewRedisStatsCache(rdb, time.Minute, nil)

	gen := reader.Generation(ctx)
	writer.Invalidate(ctx)
	reader.SetStats(ctx, gen, sampleStats())

	assert.False(t, mr.Exists(StatsKey), "stale snapshot must not reach redis")

	reader.SetStats(ctx, reader.Generation(ctx), sampleStats())
	_, ok := reader.GetStats(ctx)
	assert.True(t, ok)
}

func TestRedisStatsCache_UnavailableIsAMiss(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	c := NewRedisStatsCache(rdb, time.Minute, nil)

	mr.Close()

	_, ok := c.GetStats(ctx)
	assert.False(t, ok)
	assert.Equal(t, int64(-1), c.Generation(ctx))
	c.SetStats(ctx, -1, sampleStats())
	c.Invalidate(ctx)
	assert.Error(t, c.Ping(ctx))
}

func TestRedisStatsCache_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(StatsKey, "{not json"))

	rdb := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	_, ok := NewRedisStatsCache(rdb, time.Minute, nil).GetStats(context.Background())
	assert.False(t, ok)
}
