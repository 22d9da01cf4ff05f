package cache

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
)

const (
	// StatsKey holds the account statistics, in memory and in redis.
	StatsKey = "medid:accounts:stats:v1"
	// StatsGenKey counts invalidations of StatsKey.
	StatsGenKey = "medid:accounts:stats:gen"
)

// MemoryStatsCache keeps account statistics in process for a short TTL.
type MemoryStatsCache struct {
	mu  sync.Mutex
	gen int64
	c   *TTL[account.Stats]
}

func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	return &MemoryStatsCache{c: NewTTL[account.Stats](ttl)}
}

func (m *MemoryStatsCache) GetStats(_ context.Context) (account.Stats, bool) {
	st, ok := m.c.Get(StatsKey)
	if !ok {
		return account.Stats{}, false
	}

	st.CountsByRole = maps.Clone(st.CountsByRole)
	return st, true
}

func (m *MemoryStatsCache) Generation(_ context.Context) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

func (m *MemoryStatsCache) SetStats(_ context.Context, gen int64, st account.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}
	st.CountsByRole = maps.Clone(st.CountsByRole)
	m.c.Set(StatsKey, st)
}

func (m *MemoryStatsCache) Invalidate(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.c.Delete(StatsKey)
}
