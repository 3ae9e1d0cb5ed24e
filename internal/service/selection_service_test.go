package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stay-booking-api/internal/availability"
	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

type calendarStub struct {
	ranges      []availability.ReservationRange
	warning     string
	err         error
	invalidated []string
}

func (c *calendarStub) CalendarFor(ctx context.Context, unitID string) (*availability.Calendar, *Snapshot, bool, error) {
	if c.err != nil {
		return nil, nil, false, c.err
	}
	snap := &Snapshot{UnitID: unitID, Ranges: c.ranges, Warning: c.warning}
	return availability.NewCalendar(c.ranges, availability.DefaultPolicy(), testToday), snap, false, nil
}

func (c *calendarStub) Invalidate(ctx context.Context, unitID string) error {
	c.invalidated = append(c.invalidated, unitID)
	return nil
}

type unitSourceStub struct {
	unit  *models.Unit
	err   error
	calls int
}

func (s *unitSourceStub) GetUnit(ctx context.Context, unitID string) (*models.Unit, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.unit, nil
}

func juneRanges(extra ...availability.ReservationRecord) []availability.ReservationRange {
	records := append([]availability.ReservationRecord{{StartDate: "2024-06-01", EndDate: "2024-06-05", Status: "PENDING"}}, extra...)
	return availability.DeriveBlockedRanges(records)
}

func newTestSelectionService(ranges []availability.ReservationRange) (*SelectionService, *unitSourceStub) {
	units := &unitSourceStub{unit: &models.Unit{ID: 7, HostID: 3, PricePerNight: 100000, MaxGuests: 4}}
	return NewSelectionService(&calendarStub{ranges: ranges}, units, nil, nil, nil), units
}

func assertInvalidSelection(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidSelection.Code, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestSelectionServiceSelectCheckIn(t *testing.T) {
	svc, units := newTestSelectionService(juneRanges())

	res, err := svc.SelectCheckIn(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-10"})
	require.NoError(t, err)
	require.NotNil(t, res.CheckIn)
	assert.Equal(t, "2024-06-10", *res.CheckIn)
	assert.Nil(t, res.CheckOut)
	assert.Zero(t, res.Nights)
	assert.Equal(t, "2024-06-10", res.Pickers.CheckOut.MinDate)
	assert.Zero(t, units.calls)
}

func TestSelectionServiceSelectCheckInRejectsBlockedAndPastDays(t *testing.T) {
	svc, _ := newTestSelectionService(juneRanges())

	_, err := svc.SelectCheckIn(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-03"})
	assertInvalidSelection(t, err)

	_, err = svc.SelectCheckIn(context.Background(), "7", dto.SelectionRequest{Date: "2024-05-20"})
	assertInvalidSelection(t, err)
}

func TestSelectionServiceSelectCheckInClearsEarlierCheckOut(t *testing.T) {
	svc, _ := newTestSelectionService(juneRanges())

	res, err := svc.SelectCheckIn(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-12", CheckIn: "2024-06-10", CheckOut: "2024-06-12"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-12", *res.CheckIn)
	assert.Nil(t, res.CheckOut)

	res, err = svc.SelectCheckIn(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-08", CheckIn: "2024-06-10", CheckOut: "2024-06-12"})
	require.NoError(t, err)
	require.NotNil(t, res.CheckOut)
	assert.Equal(t, "2024-06-12", *res.CheckOut)
	assert.Equal(t, 4, res.Nights)
}

func TestSelectionServiceSelectCheckOutPricesStay(t *testing.T) {
	svc, units := newTestSelectionService(juneRanges())

	res, err := svc.SelectCheckOut(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-12", CheckIn: "2024-06-10"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Nights)
	assert.Equal(t, 200000.0, res.TotalPrice)
	assert.Equal(t, 1, units.calls)
}

func TestSelectionServiceSelectCheckOutValidation(t *testing.T) {
	svc, _ := newTestSelectionService(juneRanges(availability.ReservationRecord{StartDate: "2024-06-15", EndDate: "2024-06-16", Status: "CONFIRMED"}))

	_, err := svc.SelectCheckOut(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-10", CheckIn: "2024-06-10"})
	assertInvalidSelection(t, err)

	_, err = svc.SelectCheckOut(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-20", CheckIn: "2024-06-10"})
	assertInvalidSelection(t, err)

	res, err := svc.SelectCheckIn(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-10"})
	require.NoError(t, err)
	require.NotNil(t, res.Pickers.CheckOut.MaxDate)
	assert.Equal(t, "2024-06-14", *res.Pickers.CheckOut.MaxDate)
}

func TestSelectionServiceRejectsMalformedPayload(t *testing.T) {
	svc, _ := newTestSelectionService(nil)

	_, err := svc.SelectCheckIn(context.Background(), "7", dto.SelectionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.SelectCheckOut(context.Background(), "7", dto.SelectionRequest{Date: "2024-06-12", CheckIn: "tomorrow"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSelectionServiceQuote(t *testing.T) {
	svc, _ := newTestSelectionService(juneRanges())

	quote, err := svc.Quote(context.Background(), "7", dto.QuoteRequest{CheckIn: "2024-06-10", CheckOut: "2024-06-13", Guests: 9})
	require.NoError(t, err)
	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, 300000.0, quote.TotalPrice)
	assert.Equal(t, 4, quote.Guests)
	assert.Equal(t, []int{1, 2, 3, 4}, quote.GuestOptions)
	assert.True(t, quote.Available)

	quote, err = svc.Quote(context.Background(), "7", dto.QuoteRequest{CheckIn: "2024-06-04", CheckOut: "2024-06-07"})
	require.NoError(t, err)
	assert.False(t, quote.Available)
	assert.Equal(t, 1, quote.Guests)
}

func TestSelectionServiceQuoteBoundsCapacity(t *testing.T) {
	svc, units := newTestSelectionService(nil)
	units.unit.MaxGuests = 1_000_000_000

	quote, err := svc.Quote(context.Background(), "7", dto.QuoteRequest{CheckIn: "2024-06-10", CheckOut: "2024-06-12", Guests: 500})
	require.NoError(t, err)
	assert.Equal(t, availability.MaxGuestOptions, quote.MaxGuests)
	assert.Equal(t, availability.MaxGuestOptions, quote.Guests)
	assert.Len(t, quote.GuestOptions, availability.MaxGuestOptions)
}

func TestSelectionServiceQuoteNeedsOneNight(t *testing.T) {
	svc, _ := newTestSelectionService(nil)

	_, err := svc.Quote(context.Background(), "7", dto.QuoteRequest{CheckIn: "2024-06-10", CheckOut: "2024-06-10"})
	assertInvalidSelection(t, err)
}
