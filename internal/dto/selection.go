package dto

// SelectionRequest carries the picked day and the widget's current state.
type SelectionRequest struct {
	Date     string `json:"date" validate:"required"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// SelectionResponse is the widget state after applying a pick.
type SelectionResponse struct {
	CheckIn    *string     `json:"checkIn"`
	CheckOut   *string     `json:"checkOut"`
	Nights     int         `json:"nights"`
	TotalPrice float64     `json:"totalPrice"`
	Pickers    PickersView `json:"pickers"`
}

// QuoteRequest prices a stay.
type QuoteRequest struct {
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
	Guests   int    `json:"guests"`
}

// QuoteResponse is the price breakdown for a selection.
type QuoteResponse struct {
	UnitID        string  `json:"unitId"`
	CheckIn       string  `json:"checkIn"`
	CheckOut      string  `json:"checkOut"`
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"pricePerNight"`
	TotalPrice    float64 `json:"totalPrice"`
	Guests        int     `json:"guests"`
	MaxGuests     int     `json:"maxGuests"`
	GuestOptions  []int   `json:"guestOptions"`
	Available     bool    `json:"available"`
}
