package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

var errStaleStats = errors.New("stats computed under an older generation")

// RedisStatsCache shares account statistics between API replicas.
// Redis failures are logged and treated as misses.
type RedisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisStatsCache{rdb: rdb, ttl: ttl, log: log}
}

func (r *RedisStatsCache) GetStats(ctx context.Context) (account.Stats, bool) {
	b, err := r.rdb.Get(ctx, StatsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "stats cache read failed", "err", err)
		}
		return account.Stats{}, false
	}

	var st account.Stats
	if err := json.Unmarshal(b, &st); err != nil {
		r.log.WarnContext(ctx, "stats cache entry unreadable", "err", err)
		return account.Stats{}, false
	}
	return st, true
}

// Generation returns the current invalidation count, or -1 when redis cannot tell,
// in which case SetStats stores nothing.
func (r *RedisStatsCache) Generation(ctx context.Context) int64 {
	gen, err := r.rdb.Get(ctx, StatsGenKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0
	case err != nil:
		r.log.WarnContext(ctx, "stats cache generation read failed", "err", err)
		return -1
	}
	return gen
}

// SetStats stores the snapshot only while StatsGenKey still equals gen; WATCH aborts the
// write if an invalidation lands between the check and the SET.
func (r *RedisStatsCache) SetStats(ctx context.Context, gen int64, st account.Stats) {
	if gen < 0 {
		return
	}

	b, err := json.Marshal(st)
	if err != nil {
		return
	}

	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, StatsGenKey).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return errStaleStats
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, StatsKey, b, r.ttl)
			return nil
		})
		return err
	}, StatsGenKey)

	switch {
	case err == nil, errors.Is(err, errStaleStats), errors.Is(err, redis.TxFailedErr):
	default:
		r.log.WarnContext(ctx, "stats cache write failed", "err", err)
	}
}

func (r *RedisStatsCache) Invalidate(ctx context.Context) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, StatsGenKey)
		pipe.Del(ctx, StatsKey)
		return nil
	})
	if err != nil {
		r.log.WarnContext(ctx, "stats cache invalidation failed", "err", err)
	}
}

// Ping checks redis connectivity for readiness probes.
func (r *RedisStatsCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
