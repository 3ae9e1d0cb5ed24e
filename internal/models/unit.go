package models

// Unit holds the accommodation fields the booking widget needs.
type Unit struct {
	ID            int64   `json:"id"`
	HostID        int64   `json:"hostId"`
	Title         string  `json:"title"`
	PricePerNight float64 `json:"pricePerNight"`
	MaxGuests     int     `json:"maxGuests"`
	Active        bool    `json:"active"`
}
