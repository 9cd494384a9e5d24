package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

type NewDBPoolParams struct {
	DBHost         string
	DBPort         string
	DBName         string
	TracingEnabled bool
}

func (p NewDBPoolParams) ConnString() string {
	return fmt.Sprintf(
		"postgres://postgres@%s:%s/%s?sslmode=disable",
		p.DBHost, p.DBPort, p.DBName,
	)
}

func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(params.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	return db, nil
}

// RunPostgresMigrations applies the embedded blob table migrations.
func RunPostgresMigrations(connString string) error {
	src, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("open migrations source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, connString)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warnf("close migrator: source: %v, db: %v", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

type PostgresBackend struct {
	db *pgxpool.Pool
}

var _ Backend = (*PostgresBackend)(nil)

func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Get(ctx context.Context, key Key) ([]byte, error) {
	var value []byte
	err := b.db.QueryRow(ctx, `SELECT value FROM gymtracker.blobs WHERE key = $1`, string(key)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (b *PostgresBackend) Set(ctx context.Context, key Key, value []byte) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO gymtracker.blobs (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		string(key), value,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) Remove(ctx context.Context, key Key) error {
	if _, err := b.db.Exec(ctx, `DELETE FROM gymtracker.blobs WHERE key = $1`, string(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
