package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"optikcoin/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Open connects to the Supabase Postgres instance with pooling defaults.
func Open(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	dsn := prepareDSN(cfg.DBConnectionString, cfg.Environment)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// prepareDSN disables SSL for local development and switches to the simple
// query protocol elsewhere, since the Supabase pooler (pgbouncer in
// transaction mode) cannot hold server-side prepared statements.
func prepareDSN(dsn, environment string) string {
	isURL := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	if environment == "development" {
		if !strings.Contains(dsn, "sslmode") {
			dsn += paramSeparator(dsn, isURL) + "sslmode=disable"
		}
		return dsn
	}
	if !strings.Contains(dsn, "prefer_simple_protocol") {
		dsn += paramSeparator(dsn, isURL) + "prefer_simple_protocol=true"
	}
	return dsn
}

func paramSeparator(dsn string, isURL bool) string {
	if !isURL {
		return " "
	}
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}

// Migrate applies the bootstrap schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
