package dto

// CreateBookingRequest confirms a selection for submission to the backend.
type CreateBookingRequest struct {
	UnitID   string `json:"unitId" validate:"required,numeric"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Guests   int    `json:"guests"`
}

// OccupancyExportQuery selects the window and format of a host occupancy report.
type OccupancyExportQuery struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Format string `form:"format"`
}
