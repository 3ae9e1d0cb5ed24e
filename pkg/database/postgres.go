package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/stay-booking-api/pkg/config"
)

// Schema creates the tables owned by this service. The platform backend owns
// reservations themselves; only pending handoffs live here.
const Schema = `
CREATE TABLE IF NOT EXISTS booking_requests (
	id            UUID PRIMARY KEY,
	unit_id       TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	start_date    DATE NOT NULL,
	end_date      DATE NOT NULL,
	guests        INTEGER NOT NULL,
	nights        INTEGER NOT NULL,
	total_price   NUMERIC(14, 2) NOT NULL,
	status        TEXT NOT NULL,
	upstream_id   TEXT,
	last_error    TEXT,
	attempts      INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS booking_requests_user_idx ON booking_requests (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS booking_requests_unit_idx ON booking_requests (unit_id, status);
`

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies Schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
