package store

import (
	"context"
	"fmt"
	"net"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/gymtracker/internal/config"
)

type OpenParams struct {
	Config         *config.Config
	RedisPassword  string
	TracingEnabled bool
}

// Opened is the configured backend together with the clients it runs on.
// Redis and DBPool are nil unless that backend was chosen.
type Opened struct {
	Backend Backend
	Redis   *redis.Client
	DBPool  *pgxpool.Pool
	closers []func() error
}

// Open connects the storage backend named in the config.
func Open(ctx context.Context, params OpenParams) (*Opened, error) {
	cfg := params.Config
	opened := &Opened{}

	switch cfg.StorageBackend {
	case config.StorageMemory:
		log.Warnln("memory storage: nothing survives a restart")
		opened.Backend = NewMemoryBackend()

	case config.StorageSQLite:
		backend, err := NewSQLiteBackend(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		opened.Backend = backend
		opened.closers = append(opened.closers, backend.Close)
		log.Debugf("sqlite storage: %s", cfg.SQLitePath)

	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Debugf("redis ping: %s", rdbStatus.Val())
		opened.Backend = NewRedisBackend(rdb)
		opened.Redis = rdb
		opened.closers = append(opened.closers, rdb.Close)

	case config.StoragePostgres:
		poolParams := NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: params.TracingEnabled,
		}
		if err := RunPostgresMigrations(poolParams.ConnString()); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		dbPool, err := NewDBPool(ctx, poolParams)
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		opened.Backend = NewPostgresBackend(dbPool)
		opened.DBPool = dbPool
		opened.closers = append(opened.closers, func() error {
			dbPool.Close() // blocking operation
			return nil
		})

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}

	return opened, nil
}

// Close releases every client, collecting all errors.
func (o *Opened) Close() error {
	var err error
	for i := len(o.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, o.closers[i]())
	}
	o.closers = nil
	return err
}
