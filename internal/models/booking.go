package models

import "time"

// BookingStatus tracks a booking request through the handoff to the backend.
type BookingStatus string

const (
	BookingStatusQueued    BookingStatus = "QUEUED"
	BookingStatusSubmitted BookingStatus = "SUBMITTED"
	BookingStatusFailed    BookingStatus = "FAILED"
)

// BookingRequest is a confirmed selection awaiting or past submission.
type BookingRequest struct {
	ID         string        `db:"id" json:"id"`
	UnitID     string        `db:"unit_id" json:"unitId"`
	UserID     string        `db:"user_id" json:"userId"`
	StartDate  time.Time     `db:"start_date" json:"startDate"`
	EndDate    time.Time     `db:"end_date" json:"endDate"`
	Guests     int           `db:"guests" json:"guests"`
	Nights     int           `db:"nights" json:"nights"`
	TotalPrice float64       `db:"total_price" json:"totalPrice"`
	Status     BookingStatus `db:"status" json:"status"`
	UpstreamID *string       `db:"upstream_id" json:"upstreamId,omitempty"`
	LastError  *string       `db:"last_error" json:"lastError,omitempty"`
	Attempts   int           `db:"attempts" json:"attempts"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updatedAt"`
}
