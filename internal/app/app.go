// Package app opens the infrastructure shared by the API and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/config"
	"github.com/noah-isme/toko-kasir/internal/db"
	"github.com/noah-isme/toko-kasir/internal/db/memdb"
	"github.com/noah-isme/toko-kasir/internal/health"
	"github.com/noah-isme/toko-kasir/internal/ledger"
	"github.com/noah-isme/toko-kasir/internal/obs"
)

// Options tune how Open connects.
type Options struct {
	// ApplicationName is reported to Postgres as application_name.
	ApplicationName string
	// RedisMetrics exports go-redis pool metrics through OpenTelemetry.
	RedisMetrics bool
}

// Infra holds the opened store and the optional Redis client.
type Infra struct {
	Store db.Store
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Open connects the store selected by cfg.StoreDriver and, when REDIS_URL is
// set, Redis. Postgres schemas are migrated first when MigrateOnStart is on.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Infra, error) {
	infra := &Infra{}
	switch cfg.StoreDriver {
	case config.DriverMemory:
		infra.Store = memdb.New()
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := db.Migrate(cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}
		pool, err := OpenPool(ctx, cfg.DatabaseURL, opts.ApplicationName)
		if err != nil {
			return nil, err
		}
		infra.Pool = pool
		infra.Store = db.NewPgStore(pool)
	default:
		return nil, fmt.Errorf("app: unsupported store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisURL != "" {
		rdb, err := OpenRedis(ctx, cfg.RedisURL, opts.RedisMetrics)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = rdb
	}
	return infra, nil
}

// OpenPool connects a traced pgx pool.
func OpenPool(ctx context.Context, databaseURL, applicationName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if applicationName != "" {
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects an instrumented Redis client.
func OpenRedis(ctx context.Context, url string, metrics bool) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Close releases the pool and the Redis client.
func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
}

// PingDB implements health.Checker. The in-memory store is always reachable.
func (i *Infra) PingDB(ctx context.Context, timeout time.Duration) error {
	if i.Store == nil {
		return errors.New("store not configured")
	}
	if i.Pool == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return i.Pool.Ping(ctx)
}

// PingRedis implements health.Checker. Redis is optional, so a missing client
// reports health.ErrDisabled.
func (i *Infra) PingRedis(ctx context.Context, timeout time.Duration) error {
	if i.Redis == nil {
		return health.ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return i.Redis.Ping(ctx).Err()
}

// Bootstrap reconciles the drawer with the configured face values and seeds
// the demo catalogue into an in-memory store.
func Bootstrap(ctx context.Context, cfg *config.Config, store db.Store, products *catalog.Service, logger zerolog.Logger) error {
	report, err := ledger.Reconcile(ctx, store, cfg.Till.Denominations, cfg.Till.SeedCount)
	if err != nil {
		return fmt.Errorf("reconcile drawer: %w", err)
	}
	logger.Info().
		Int64("removed", report.Removed).
		Ints64("inserted", report.Inserted).
		Msg("drawer reconciled")

	if cfg.StoreDriver != config.DriverMemory || products == nil {
		return nil
	}
	added, err := products.Seed(ctx, catalog.DemoProducts())
	if err != nil {
		return fmt.Errorf("seed demo products: %w", err)
	}
	logger.Info().Int("added", added).Msg("demo products seeded")
	return nil
}
