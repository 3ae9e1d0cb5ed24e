package models

import "github.com/noah-isme/stay-booking-api/internal/availability"

// Reservation is the reservation DTO served by the platform backend.
type Reservation struct {
	ID              int64   `json:"id"`
	AccommodationID int64   `json:"accommodationId"`
	UserID          int64   `json:"userId"`
	HostID          int64   `json:"hostId"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	Nights          int     `json:"nights"`
	TotalPrice      float64 `json:"totalPrice"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
}

// Record reduces the reservation to what the availability engine reads.
func (r Reservation) Record() availability.ReservationRecord {
	return availability.ReservationRecord{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Status:    r.Status,
	}
}

// CreateReservation is the payload handed to the backend when a guest confirms a stay.
type CreateReservation struct {
	AccommodationID int64  `json:"accommodationId"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	Guests          int    `json:"guests"`
}
