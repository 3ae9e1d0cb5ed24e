package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/stay-booking-api/internal/availability"
	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/jobs"
)

// BookingJobType identifies reservation handoff jobs on the queue.
const BookingJobType = "booking.submit"

type bookingStore interface {
	Create(ctx context.Context, booking *models.BookingRequest) error
	GetByID(ctx context.Context, id string) (*models.BookingRequest, error)
	MarkSubmitted(ctx context.Context, id, upstreamID string) error
	MarkFailed(ctx context.Context, id, reason string) error
	RecordAttempt(ctx context.Context, id, reason string) error
}

type reservationSubmitter interface {
	CreateReservation(ctx context.Context, bearer, idempotencyKey string, payload models.CreateReservation) (*models.Reservation, error)
	ListUnitReservations(ctx context.Context, unitID string) ([]models.Reservation, error)
}

type availabilityInvalidator interface {
	Invalidate(ctx context.Context, unitID string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// BookingSubmission is the queue payload for one handoff. The bearer token is
// kept in memory only and never persisted.
type BookingSubmission struct {
	BookingID string
	Bearer    string
}

// BookingService validates confirmed selections and queues them for submission to the backend.
type BookingService struct {
	store     bookingStore
	calendars calendarProvider
	units     unitSource
	queue     jobDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService constructs the service.
func NewBookingService(store bookingStore, calendars calendarProvider, units unitSource, queue jobDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		store:     store,
		calendars: calendars,
		units:     units,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit checks the selection against the unit's calendar and capacity,
// stores it as QUEUED and hands it to the submission queue.
func (s *BookingService) Submit(ctx context.Context, claims *models.Claims, bearer string, req dto.CreateBookingRequest) (*models.BookingRequest, error) {
	if claims == nil || claims.UserID() == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	state, err := bookingSelection(req)
	if err != nil {
		return nil, err
	}
	nights := availability.ComputeNights(state)
	if nights < 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "a stay needs at least one night")
	}

	cal, snap, _, err := s.calendars.CalendarFor(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}
	if state.CheckIn.Before(cal.Today()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "check-in cannot be in the past")
	}
	if !cal.RangeFree(*state.CheckIn, *state.CheckOut) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "selected dates overlap an existing reservation")
	}
	if snap.Degraded() {
		s.logger.Warn("accepting booking without reservation data", zap.String("unit_id", req.UnitID))
	}

	start := time.Now()
	unit, err := s.units.GetUnit(ctx, req.UnitID)
	s.metrics.ObserveUpstream("get_unit", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	maxGuests := unit.MaxGuests
	if maxGuests < 1 {
		maxGuests = 1
	}
	if req.Guests < 1 || req.Guests > maxGuests {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, fmt.Sprintf("guests must be between 1 and %d", maxGuests))
	}

	now := s.now().UTC()
	booking := &models.BookingRequest{
		ID:         uuid.NewString(),
		UnitID:     req.UnitID,
		UserID:     claims.UserID(),
		StartDate:  *state.CheckIn,
		EndDate:    *state.CheckOut,
		Guests:     req.Guests,
		Nights:     nights,
		TotalPrice: availability.ComputeTotalPrice(unit.PricePerNight, nights),
		Status:     models.BookingStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	dbStart := time.Now()
	err = s.store.Create(ctx, booking)
	s.metrics.ObserveDBQuery("booking_create", time.Since(dbStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store booking request")
	}

	job := jobs.Job{ID: booking.ID, Type: BookingJobType, Payload: BookingSubmission{BookingID: booking.ID, Bearer: bearer}}
	if err := s.queue.Enqueue(job); err != nil {
		if markErr := s.store.MarkFailed(ctx, booking.ID, "failed to enqueue submission"); markErr != nil {
			s.logger.Warn("failed to mark booking failed", zap.String("booking_id", booking.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue booking submission")
	}

	s.logger.Info("booking queued",
		zap.String("booking_id", booking.ID),
		zap.String("unit_id", booking.UnitID),
		zap.Int("nights", nights),
	)
	return booking, nil
}

// Get returns a booking request owned by the caller.
func (s *BookingService) Get(ctx context.Context, claims *models.Claims, id string) (*models.BookingRequest, error) {
	if claims == nil || claims.UserID() == "" {
		return nil, appErrors.ErrUnauthorized
	}
	start := time.Now()
	booking, err := s.store.GetByID(ctx, id)
	s.metrics.ObserveDBQuery("booking_get", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking request")
	}
	if booking == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking request not found")
	}
	if booking.UserID != claims.UserID() {
		return nil, appErrors.ErrForbidden
	}
	return booking, nil
}

func bookingSelection(req dto.CreateBookingRequest) (availability.SelectionState, error) {
	var state availability.SelectionState
	if req.CheckIn == "" || req.CheckOut == "" {
		return state, appErrors.Clone(appErrors.ErrInvalidSelection, "both check-in and check-out are required")
	}
	in, ok := availability.ParseDay(req.CheckIn)
	if !ok {
		return state, appErrors.Clone(appErrors.ErrValidation, "checkIn must be a YYYY-MM-DD date")
	}
	out, ok := availability.ParseDay(req.CheckOut)
	if !ok {
		return state, appErrors.Clone(appErrors.ErrValidation, "checkOut must be a YYYY-MM-DD date")
	}
	state.CheckIn, state.CheckOut = &in, &out
	return state, nil
}

// BookingWorker submits queued booking requests to the platform backend.
type BookingWorker struct {
	store     bookingStore
	platform  reservationSubmitter
	calendars availabilityInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewBookingWorker constructs a worker.
func NewBookingWorker(store bookingStore, platform reservationSubmitter, calendars availabilityInvalidator, metrics *MetricsService, logger *zap.Logger) *BookingWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingWorker{store: store, platform: platform, calendars: calendars, metrics: metrics, logger: logger}
}

// Handle processes one queue job. Client-side rejections from the backend are
// permanent; transport and server failures are retried by the queue.
func (w *BookingWorker) Handle(ctx context.Context, job jobs.Job) error {
	submission, ok := job.Payload.(BookingSubmission)
	if !ok {
		return jobs.Permanent{Err: fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)}
	}

	booking, err := w.store.GetByID(ctx, submission.BookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return jobs.Permanent{Err: fmt.Errorf("booking request %s not found", submission.BookingID)}
	}
	if booking.Status != models.BookingStatusQueued {
		return nil
	}

	accommodationID, err := strconv.ParseInt(booking.UnitID, 10, 64)
	if err != nil {
		return jobs.Permanent{Err: fmt.Errorf("unit id %q is not numeric: %w", booking.UnitID, err)}
	}

	// A previous attempt may have reached the backend before failing on our side.
	if job.Attempt > 0 || booking.Attempts > 0 {
		existing, err := w.findSubmitted(ctx, booking)
		if err != nil {
			return w.retry(ctx, booking, err)
		}
		if existing != nil {
			w.logger.Info("reservation already created by an earlier attempt",
				zap.String("booking_id", booking.ID), zap.Int64("reservation_id", existing.ID))
			return w.complete(ctx, booking, existing)
		}
	}

	start := time.Now()
	created, err := w.platform.CreateReservation(ctx, submission.Bearer, booking.ID, models.CreateReservation{
		AccommodationID: accommodationID,
		StartDate:       availability.FormatDay(booking.StartDate),
		EndDate:         availability.FormatDay(booking.EndDate),
		Guests:          booking.Guests,
	})
	w.metrics.ObserveUpstream("create_reservation", err, time.Since(start))
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status < http.StatusInternalServerError {
			return jobs.Permanent{Err: err}
		}
		return w.retry(ctx, booking, err)
	}
	return w.complete(ctx, booking, created)
}

func (w *BookingWorker) retry(ctx context.Context, booking *models.BookingRequest, cause error) error {
	w.metrics.RecordHandoff("retry")
	if err := w.store.RecordAttempt(ctx, booking.ID, cause.Error()); err != nil {
		w.logger.Warn("failed to record booking attempt", zap.String("booking_id", booking.ID), zap.Error(err))
	}
	return cause
}

// findSubmitted looks for a live reservation of the same guest and stay on the unit.
func (w *BookingWorker) findSubmitted(ctx context.Context, booking *models.BookingRequest) (*models.Reservation, error) {
	start := time.Now()
	reservations, err := w.platform.ListUnitReservations(ctx, booking.UnitID)
	w.metrics.ObserveUpstream("list_reservations", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	for i := range reservations {
		r := reservations[i]
		if strconv.FormatInt(r.UserID, 10) != booking.UserID {
			continue
		}
		if availability.ParseStatus(r.Status) == availability.StatusCancelled {
			continue
		}
		from, okFrom := availability.ParseDay(r.StartDate)
		to, okTo := availability.ParseDay(r.EndDate)
		if okFrom && okTo && from.Equal(availability.Day(booking.StartDate)) && to.Equal(availability.Day(booking.EndDate)) {
			return &r, nil
		}
	}
	return nil, nil
}

func (w *BookingWorker) complete(ctx context.Context, booking *models.BookingRequest, created *models.Reservation) error {
	if err := w.store.MarkSubmitted(ctx, booking.ID, strconv.FormatInt(created.ID, 10)); err != nil {
		return jobs.Permanent{Err: fmt.Errorf("reservation %d created but booking %s not updated: %w", created.ID, booking.ID, err)}
	}
	w.metrics.RecordHandoff("submitted")
	if err := w.calendars.Invalidate(ctx, booking.UnitID); err != nil {
		w.logger.Warn("failed to invalidate availability", zap.String("unit_id", booking.UnitID), zap.Error(err))
	}
	w.logger.Info("booking submitted", zap.String("booking_id", booking.ID), zap.Int64("reservation_id", created.ID))
	return nil
}

// DeadLetter marks a booking whose submission will not be retried.
func (w *BookingWorker) DeadLetter(ctx context.Context, job jobs.Job, cause error) {
	w.metrics.RecordHandoff("failed")
	id := job.ID
	if submission, ok := job.Payload.(BookingSubmission); ok && submission.BookingID != "" {
		id = submission.BookingID
	}
	reason := cause.Error()
	var appErr *appErrors.Error
	if errors.As(cause, &appErr) {
		reason = appErr.Message
	}
	if err := w.store.MarkFailed(ctx, id, reason); err != nil {
		w.logger.Warn("failed to mark booking failed", zap.String("booking_id", id), zap.Error(err))
	}
}
