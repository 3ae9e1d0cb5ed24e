package dto

import "time"

// CalendarQuery bounds the annotated window. Dates are YYYY-MM-DD.
type CalendarQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// CalendarDay is one annotated day of the availability calendar.
type CalendarDay struct {
	Date       string `json:"date"`
	Blocked    bool   `json:"blocked"`
	StatusTag  string `json:"statusTag"`
	Selectable bool   `json:"selectable"`
}

// BlockedRange is an occupied span as shown to the widget.
type BlockedRange struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// DateSpan is an inclusive disabled span in a picker.
type DateSpan struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PickerView configures one date picker.
type PickerView struct {
	MinDate  string     `json:"minDate"`
	MaxDate  *string    `json:"maxDate,omitempty"`
	Disabled []DateSpan `json:"disabled"`
}

// PickersView pairs the check-in and check-out pickers.
type PickersView struct {
	CheckIn  PickerView `json:"checkIn"`
	CheckOut PickerView `json:"checkOut"`
}

// CalendarResponse is the availability view for one unit.
type CalendarResponse struct {
	UnitID        string         `json:"unitId"`
	From          string         `json:"from"`
	To            string         `json:"to"`
	Today         string         `json:"today"`
	Days          []CalendarDay  `json:"days"`
	BlockedRanges []BlockedRange `json:"blockedRanges"`
	Pickers       PickersView    `json:"pickers"`
	FetchedAt     time.Time      `json:"fetchedAt"`
	Warning       string         `json:"warning,omitempty"`
}

// RefreshResponse summarises a reservation reload.
type RefreshResponse struct {
	UnitID     string    `json:"unitId"`
	RangeCount int       `json:"rangeCount"`
	FetchedAt  time.Time `json:"fetchedAt"`
	Warning    string    `json:"warning,omitempty"`
}
