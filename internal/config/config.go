package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

type Config struct {
	Env  string
	Port int

	Store       string
	DBURL       string
	DBMaxConns  int
	SQLitePath  string
	FrontendURL string

	JWTSecret    string
	JWTExpiresIn time.Duration
	JWTIssuer    string
	BcryptCost   int

	AdminEmail     string
	AdminPassword  string
	AdminFirstName string
	AdminLastName  string

	AllowAdminSignup bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	OTLPEndpoint string

	AuthRateLimit  int
	AuthRateWindow time.Duration
	MaxBodyBytes   int64
}

// Load reads the environment, after merging a .env file when one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		Store:       strings.ToLower(getEnv("STORE", StorePostgres)),
		DBURL:       getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),
		SQLitePath:  getEnv("SQLITE_PATH", "file:medid.db?cache=shared&mode=rwc"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:8100"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		JWTIssuer:    getEnv("JWT_ISSUER", "medid"),
		BcryptCost:   getEnvInt("BCRYPT_COST", 12),

		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AdminFirstName: getEnv("ADMIN_FIRST_NAME", "Admin"),
		AdminLastName:  getEnv("ADMIN_LAST_NAME", "System"),

		AllowAdminSignup: getEnvBool("ALLOW_ADMIN_SIGNUP", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StatsCacheTTL: getEnvDuration("STATS_CACHE_TTL", 30*time.Second),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 0),
		AuthRateWindow: getEnvDuration("AUTH_RATE_WINDOW", 15*time.Minute),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "medid")
	pass := getEnv("DB_PASSWORD", "medid")
	name := getEnv("DB_NAME", "medid")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a call made on behalf of parent. A nil parent means background work.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean in environment, using default", "key", key, "value", v)
			return fallback
		}

		return b
	}
	return fallback
}

// getEnvDuration accepts Go durations ("15m") and the short day form ("7d").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if strings.HasSuffix(v, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(v, "d")); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
