package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stay-booking-api/internal/models"
)

// BookingRepository persists booking requests awaiting or past submission.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, unit_id, user_id, start_date, end_date, guests, nights, total_price, status, upstream_id, last_error, attempts, created_at, updated_at`

// Create inserts a new booking request.
func (r *BookingRepository) Create(ctx context.Context, booking *models.BookingRequest) error {
	const query = `INSERT INTO booking_requests (` + bookingColumns + `)
VALUES (:id, :unit_id, :user_id, :start_date, :end_date, :guests, :nights, :total_price, :status, :upstream_id, :last_error, :attempts, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("insert booking request: %w", err)
	}
	return nil
}

// GetByID returns the booking request or nil when it does not exist.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	const query = `SELECT ` + bookingColumns + ` FROM booking_requests WHERE id = $1`
	var booking models.BookingRequest
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking request: %w", err)
	}
	return &booking, nil
}

// MarkSubmitted records the backend reservation id for a handed-off booking.
func (r *BookingRepository) MarkSubmitted(ctx context.Context, id, upstreamID string) error {
	const query = `UPDATE booking_requests
SET status = $1, upstream_id = $2, last_error = NULL, attempts = attempts + 1, updated_at = $3
WHERE id = $4`
	return r.update(ctx, "mark booking submitted", query, models.BookingStatusSubmitted, upstreamID, time.Now().UTC(), id)
}

// MarkFailed records a terminal handoff failure.
func (r *BookingRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE booking_requests
SET status = $1, last_error = $2, updated_at = $3
WHERE id = $4`
	return r.update(ctx, "mark booking failed", query, models.BookingStatusFailed, reason, time.Now().UTC(), id)
}

// RecordAttempt notes a retryable handoff failure without changing status.
func (r *BookingRepository) RecordAttempt(ctx context.Context, id, reason string) error {
	const query = `UPDATE booking_requests
SET attempts = attempts + 1, last_error = $1, updated_at = $2
WHERE id = $3`
	return r.update(ctx, "record booking attempt", query, reason, time.Now().UTC(), id)
}

func (r *BookingRepository) update(ctx context.Context, label, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", label, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", label, sql.ErrNoRows)
	}
	return nil
}
