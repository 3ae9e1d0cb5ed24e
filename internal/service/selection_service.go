package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stay-booking-api/internal/availability"
	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

type calendarProvider interface {
	CalendarFor(ctx context.Context, unitID string) (*availability.Calendar, *Snapshot, bool, error)
}

type unitSource interface {
	GetUnit(ctx context.Context, unitID string) (*models.Unit, error)
}

// SelectionService applies check-in/check-out picks against a unit's calendar.
// It keeps no selection state of its own; the widget sends its state with every pick.
type SelectionService struct {
	calendars calendarProvider
	units     unitSource
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSelectionService constructs the service.
func NewSelectionService(calendars calendarProvider, units unitSource, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SelectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{calendars: calendars, units: units, metrics: metrics, validator: validate, logger: logger}
}

// SelectCheckIn sets the check-in. Blocked or past days are rejected before the pick is applied.
func (s *SelectionService) SelectCheckIn(ctx context.Context, unitID string, req dto.SelectionRequest) (*dto.SelectionResponse, error) {
	day, state, err := s.parseSelection(req)
	if err != nil {
		return nil, err
	}
	cal, _, _, err := s.calendars.CalendarFor(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if err := checkSelectable(cal, day, "check-in"); err != nil {
		return nil, err
	}

	next := availability.SelectCheckIn(day, state, cal.Today())
	return s.selectionView(ctx, unitID, cal, next)
}

// SelectCheckOut sets the check-out. The day must be selectable, after the
// check-in, and the stay must not cross a blocked day.
func (s *SelectionService) SelectCheckOut(ctx context.Context, unitID string, req dto.SelectionRequest) (*dto.SelectionResponse, error) {
	day, state, err := s.parseSelection(req)
	if err != nil {
		return nil, err
	}
	cal, _, _, err := s.calendars.CalendarFor(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if err := checkSelectable(cal, day, "check-out"); err != nil {
		return nil, err
	}
	if state.CheckIn != nil {
		if !day.After(*state.CheckIn) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "check-out must be after check-in")
		}
		if !cal.RangeFree(*state.CheckIn, day) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "stay overlaps an existing reservation")
		}
	}

	next := availability.SelectCheckOut(day, state)
	return s.selectionView(ctx, unitID, cal, next)
}

// Quote prices a complete selection and bounds the guest count to the unit's capacity.
func (s *SelectionService) Quote(ctx context.Context, unitID string, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quote payload")
	}
	checkIn, ok := availability.ParseDay(req.CheckIn)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "checkIn must be a YYYY-MM-DD date")
	}
	checkOut, ok := availability.ParseDay(req.CheckOut)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "checkOut must be a YYYY-MM-DD date")
	}

	state := availability.SelectionState{CheckIn: &checkIn, CheckOut: &checkOut}
	nights := availability.ComputeNights(state)
	if nights < 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "a stay needs at least one night")
	}

	cal, _, _, err := s.calendars.CalendarFor(ctx, unitID)
	if err != nil {
		return nil, err
	}
	unit, err := s.unit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	capacity := availability.ClampGuests(unit.MaxGuests, availability.MaxGuestOptions)
	return &dto.QuoteResponse{
		UnitID:        unitID,
		CheckIn:       availability.FormatDay(checkIn),
		CheckOut:      availability.FormatDay(checkOut),
		Nights:        nights,
		PricePerNight: unit.PricePerNight,
		TotalPrice:    availability.ComputeTotalPrice(unit.PricePerNight, nights),
		Guests:        availability.ClampGuests(req.Guests, capacity),
		MaxGuests:     capacity,
		GuestOptions:  availability.GuestOptions(capacity),
		Available:     cal.Selectable(checkIn) && cal.RangeFree(checkIn, checkOut),
	}, nil
}

func (s *SelectionService) parseSelection(req dto.SelectionRequest) (time.Time, availability.SelectionState, error) {
	var state availability.SelectionState
	if err := s.validator.Struct(req); err != nil {
		return time.Time{}, state, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}
	day, ok := availability.ParseDay(req.Date)
	if !ok {
		return time.Time{}, state, appErrors.Clone(appErrors.ErrValidation, "date must be a YYYY-MM-DD date")
	}
	if req.CheckIn != "" {
		in, ok := availability.ParseDay(req.CheckIn)
		if !ok {
			return time.Time{}, state, appErrors.Clone(appErrors.ErrValidation, "checkIn must be a YYYY-MM-DD date")
		}
		state.CheckIn = &in
	}
	if req.CheckOut != "" {
		out, ok := availability.ParseDay(req.CheckOut)
		if !ok {
			return time.Time{}, state, appErrors.Clone(appErrors.ErrValidation, "checkOut must be a YYYY-MM-DD date")
		}
		state.CheckOut = &out
	}
	return day, state, nil
}

func (s *SelectionService) selectionView(ctx context.Context, unitID string, cal *availability.Calendar, state availability.SelectionState) (*dto.SelectionResponse, error) {
	view := &dto.SelectionResponse{
		CheckIn:  formatOptionalDay(state.CheckIn),
		CheckOut: formatOptionalDay(state.CheckOut),
		Nights:   availability.ComputeNights(state),
		Pickers:  pickersView(cal.Pickers(state)),
	}
	if view.Nights > 0 {
		unit, err := s.unit(ctx, unitID)
		if err != nil {
			return nil, err
		}
		view.TotalPrice = availability.ComputeTotalPrice(unit.PricePerNight, view.Nights)
	}
	return view, nil
}

func (s *SelectionService) unit(ctx context.Context, unitID string) (*models.Unit, error) {
	start := time.Now()
	unit, err := s.units.GetUnit(ctx, unitID)
	s.metrics.ObserveUpstream("get_unit", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func checkSelectable(cal *availability.Calendar, day time.Time, field string) error {
	if day.Before(cal.Today()) {
		return appErrors.Clone(appErrors.ErrInvalidSelection, field+" cannot be in the past")
	}
	if !cal.Selectable(day) {
		return appErrors.Clone(appErrors.ErrInvalidSelection, field+" falls on a reserved day")
	}
	return nil
}

func formatOptionalDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := availability.FormatDay(*t)
	return &formatted
}
