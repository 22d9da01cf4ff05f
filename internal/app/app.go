// Package app assembles the identity service from configuration: storage backend,
// stats cache, hasher, token manager and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/medid/internal/auth"
	"github.com/geocoder89/medid/internal/cache"
	"github.com/geocoder89/medid/internal/config"
	"github.com/geocoder89/medid/internal/db"
	"github.com/geocoder89/medid/internal/http/handlers"
	"github.com/geocoder89/medid/internal/identity"
	"github.com/geocoder89/medid/internal/observability"
	"github.com/geocoder89/medid/internal/repo/memory"
	"github.com/geocoder89/medid/internal/repo/postgres"
	"github.com/geocoder89/medid/internal/repo/sqlite"
	"github.com/geocoder89/medid/internal/security"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var ErrMissingSecret = errors.New("JWT_SECRET must be set outside dev")

type App struct {
	Config   config.Config
	Log      *slog.Logger
	Registry *prometheus.Registry
	Prom     *observability.Prom
	Tokens   *auth.Manager
	Service  *identity.Service
	// Checks are the readiness probes of the backing services.
	Checks map[string]handlers.Checker

	closers []func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Log:      log,
		Registry: prometheus.NewRegistry(),
		Checks:   map[string]handlers.Checker{},
	}

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Prom = observability.NewProm(a.Registry)

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.Env != "dev" {
			return nil, ErrMissingSecret
		}
		secret = uuid.NewString() + uuid.NewString()
		log.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	a.Tokens = auth.NewManager(secret, cfg.JWTExpiresIn, auth.WithIssuer(cfg.JWTIssuer))

	repo, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = identity.NewService(
		repo,
		security.NewBcryptHasher(cfg.BcryptCost),
		a.Tokens,
		log,
		identity.WithStatsCache(a.statsCache()),
		identity.WithRecorder(a.Prom),
		identity.WithAdminSignup(cfg.AllowAdminSignup),
	)

	return a, nil
}

func (a *App) openStore(ctx context.Context) (identity.Repository, error) {
	cfg := a.Config

	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, int32(cfg.DBMaxConns))
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if err := db.EnsureSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		a.Checks["postgres"] = pool.Ping
		return postgres.NewAccountsRepo(pool, a.Prom), nil

	case config.StoreSQLite:
		sqlDB, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })

		if err := sqlite.AutoMigrate(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}

		a.Checks["sqlite"] = sqlDB.PingContext
		return sqlite.NewAccountsRepo(sqlDB), nil

	case config.StoreMemory:
		a.Log.Warn("using the in-memory store; accounts are lost on restart")
		return memory.NewAccountsRepo(), nil

	default:
		return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
}

// statsCache shares statistics through redis when REDIS_ADDR is set, else keeps them in process.
func (a *App) statsCache() identity.StatsCache {
	cfg := a.Config

	if cfg.RedisAddr == "" {
		return cache.NewMemoryStatsCache(cfg.StatsCacheTTL)
	}

	rdb := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	rc := cache.NewRedisStatsCache(rdb, cfg.StatsCacheTTL, a.Log)
	a.Checks["redis"] = rc.Ping
	return rc
}

// Close releases the store and cache connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// SeedAdmin creates the bootstrap administrator if configured.
func (a *App) SeedAdmin(ctx context.Context) error {
	ctx, cancel := config.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return db.EnsureAdminUser(ctx, a.Service, a.Config, a.Log)
}
