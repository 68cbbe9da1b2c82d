package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// DB holds the connection pool.
type DB struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewDB creates and tests a new database connection.
func NewDB(ctx context.Context, connString string, baseLogger *zerolog.Logger) (*DB, error) {
	log := baseLogger.With().Str("component", "postgres").Logger()

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse DB connection string")
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create connection pool")
		return nil, err
	}

	// Ping the database to ensure a valid connection
	if err := pool.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to ping database")
		pool.Close() // Clean up
		return nil, err
	}

	log.Info().Msg("Database connection pool established")
	return &DB{pool: pool, log: log}, nil
}

// RunMigrations applies the goose SQL migrations from the given directory.
func (db *DB) RunMigrations(ctx context.Context, dir string) error {
	sqlDB := stdlib.OpenDB(*db.pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		db.log.Error().Err(err).Str("dir", dir).Msg("Migrations failed")
		return err
	}
	db.log.Info().Str("dir", dir).Msg("Migrations up to date")
	return nil
}

// Close gracefully closes the connection pool.
func (db *DB) Close() {
	db.log.Info().Msg("Closing database connection pool")
	db.pool.Close()
}
