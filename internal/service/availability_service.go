package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stay-booking-api/internal/availability"
	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

const (
	defaultFetchTimeout  = 10 * time.Second
	defaultWindowDays    = 60
	defaultMaxWindowDays = 370
	availabilityCacheKey = "availability:unit:%s"
	maxRefreshAttempts   = 2
)

type reservationSource interface {
	ListUnitReservations(ctx context.Context, unitID string) ([]models.Reservation, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// AvailabilityConfig tunes reservation loading.
type AvailabilityConfig struct {
	FetchTimeout  time.Duration
	CacheTTL      time.Duration
	MaxWindowDays int
	Policy        availability.Policy
}

// Snapshot is the blocked-range set of one unit as of FetchedAt. A non-empty
// Warning means the reservation data could not be loaded and every day is shown free.
type Snapshot struct {
	UnitID    string                          `json:"unitId"`
	Ranges    []availability.ReservationRange `json:"ranges"`
	FetchedAt time.Time                       `json:"fetchedAt"`
	Warning   string                          `json:"warning,omitempty"`
}

// Degraded reports whether the snapshot was built without reservation data.
func (s *Snapshot) Degraded() bool {
	return s != nil && s.Warning != ""
}

// AvailabilityService loads reservation snapshots per unit and serves calendar views over them.
type AvailabilityService struct {
	source  reservationSource
	cache   snapshotCache
	metrics *MetricsService
	tokens  *availability.Tokens
	cfg     AvailabilityConfig
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.RWMutex
	latest map[string]*Snapshot
}

// NewAvailabilityService constructs the service. cache and metrics may be nil.
func NewAvailabilityService(source reservationSource, cache snapshotCache, metrics *MetricsService, cfg AvailabilityConfig, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = defaultMaxWindowDays
	}
	return &AvailabilityService{
		source:  source,
		cache:   cache,
		metrics: metrics,
		tokens:  availability.NewTokens(),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		latest:  make(map[string]*Snapshot),
	}
}

// Policy returns the blocking policy in force.
func (s *AvailabilityService) Policy() availability.Policy {
	return s.cfg.Policy
}

// Snapshot returns the current range set for a unit, reloading it when no fresh copy exists.
// The boolean reports whether the snapshot came from cache.
func (s *AvailabilityService) Snapshot(ctx context.Context, unitID string) (*Snapshot, bool, error) {
	if unitID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unit id is required")
	}

	if s.cache != nil {
		var cached Snapshot
		hit, err := s.cache.Get(ctx, cacheKey(unitID), &cached)
		if err != nil {
			s.logger.Warn("availability cache read failed", zap.String("unit_id", unitID), zap.Error(err))
		}
		if hit {
			return &cached, true, nil
		}
	}

	if snap := s.current(unitID); snap != nil && !snap.Degraded() && s.fresh(snap) {
		return snap, true, nil
	}

	snap, err := s.Refresh(ctx, unitID)
	return snap, false, err
}

// Refresh loads the unit's reservations. Every fetch takes a new request token;
// a response that finishes after a newer request or an invalidation started is
// discarded. When nothing newer has been committed the fetch is repeated once.
func (s *AvailabilityService) Refresh(ctx context.Context, unitID string) (*Snapshot, error) {
	if unitID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unit id is required")
	}

	var snap *Snapshot
	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		var (
			committed bool
			err       error
		)
		snap, committed, err = s.fetch(ctx, unitID)
		if err != nil {
			return nil, err
		}
		if committed {
			return snap, nil
		}
		if newer := s.current(unitID); newer != nil {
			return newer, nil
		}
	}
	return snap, nil
}

func (s *AvailabilityService) fetch(ctx context.Context, unitID string) (*Snapshot, bool, error) {
	token := s.tokens.Next(unitID)

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	reservations, err := s.source.ListUnitReservations(fetchCtx, unitID)
	s.metrics.ObserveUpstream("list_reservations", err, time.Since(start))

	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return nil, false, ctx.Err()
	}

	snap := &Snapshot{UnitID: unitID, FetchedAt: s.now().UTC(), Ranges: []availability.ReservationRange{}}
	switch {
	case err != nil:
		s.logger.Warn("reservation fetch failed, serving calendar without blocked dates",
			zap.String("unit_id", unitID), zap.Error(err))
		snap.Warning = appErrors.ErrDataUnavailable.Message
	case len(reservations) == 0:
		snap.Warning = appErrors.ErrDataUnavailable.Message
	default:
		records := make([]availability.ReservationRecord, len(reservations))
		for i, r := range reservations {
			records[i] = r.Record()
		}
		snap.Ranges = s.cfg.Policy.DeriveBlockedRanges(records)
	}

	committed := s.tokens.Commit(unitID, token, func() {
		s.mu.Lock()
		s.latest[unitID] = snap
		s.mu.Unlock()
	})
	if !committed {
		s.metrics.RecordRefresh("stale")
		s.logger.Debug("discarding stale reservation fetch", zap.String("unit_id", unitID), zap.Uint64("token", token))
		return snap, false, nil
	}

	if snap.Degraded() {
		s.metrics.RecordRefresh("degraded")
		return snap, true, nil
	}
	s.metrics.RecordRefresh("ok")
	s.store(ctx, unitID, token, snap)
	return snap, true, nil
}

// store writes a committed snapshot to the cache. If a newer fetch or an
// invalidation started while the write was in flight, the entry is evicted
// again so an older snapshot never outlives the newer state.
func (s *AvailabilityService) store(ctx context.Context, unitID string, token uint64, snap *Snapshot) {
	if s.cache == nil {
		return
	}
	key := cacheKey(unitID)
	if err := s.cache.Set(ctx, key, snap, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("availability cache write failed", zap.String("unit_id", unitID), zap.Error(err))
		return
	}
	if s.tokens.IsLatest(unitID, token) {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("availability cache evict failed", zap.String("unit_id", unitID), zap.Error(err))
	}
}

// Invalidate forgets every stored snapshot of the unit. Fetches already in
// flight lose their token and cannot publish afterwards.
func (s *AvailabilityService) Invalidate(ctx context.Context, unitID string) error {
	s.tokens.Next(unitID)
	s.mu.Lock()
	delete(s.latest, unitID)
	s.mu.Unlock()

	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, cacheKey(unitID))
}

// CalendarFor builds an immutable calendar over the unit's current snapshot.
func (s *AvailabilityService) CalendarFor(ctx context.Context, unitID string) (*availability.Calendar, *Snapshot, bool, error) {
	snap, hit, err := s.Snapshot(ctx, unitID)
	if err != nil {
		return nil, nil, false, err
	}
	return availability.NewCalendar(snap.Ranges, s.cfg.Policy, s.now()), snap, hit, nil
}

// Calendar returns annotated days for [from, to] plus picker settings for an empty selection.
// Empty bounds default to a window starting today.
func (s *AvailabilityService) Calendar(ctx context.Context, unitID string, query dto.CalendarQuery) (*dto.CalendarResponse, bool, error) {
	cal, snap, hit, err := s.CalendarFor(ctx, unitID)
	if err != nil {
		return nil, false, err
	}

	from, to, err := s.window(cal.Today(), query.From, query.To)
	if err != nil {
		return nil, false, err
	}

	annotations := cal.Window(from, to)
	days := make([]dto.CalendarDay, len(annotations))
	for i, a := range annotations {
		days[i] = dto.CalendarDay{
			Date:       availability.FormatDay(a.Date),
			Blocked:    a.Blocked,
			StatusTag:  string(a.StatusTag),
			Selectable: cal.Selectable(a.Date),
		}
	}

	return &dto.CalendarResponse{
		UnitID:        unitID,
		From:          availability.FormatDay(from),
		To:            availability.FormatDay(to),
		Today:         availability.FormatDay(cal.Today()),
		Days:          days,
		BlockedRanges: blockedRangeViews(snap.Ranges),
		Pickers:       pickersView(cal.Pickers(availability.SelectionState{})),
		FetchedAt:     snap.FetchedAt,
		Warning:       snap.Warning,
	}, hit, nil
}

func (s *AvailabilityService) window(today time.Time, rawFrom, rawTo string) (time.Time, time.Time, error) {
	from := today
	if rawFrom != "" {
		parsed, ok := availability.ParseDay(rawFrom)
		if !ok {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be a YYYY-MM-DD date")
		}
		from = parsed
	}
	to := availability.AddDays(from, defaultWindowDays-1)
	if rawTo != "" {
		parsed, ok := availability.ParseDay(rawTo)
		if !ok {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be a YYYY-MM-DD date")
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if span := int(to.Sub(from).Hours()/24) + 1; span > s.cfg.MaxWindowDays {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window must not exceed %d days", s.cfg.MaxWindowDays))
	}
	return from, to, nil
}

func (s *AvailabilityService) current(unitID string) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[unitID]
}

func (s *AvailabilityService) fresh(snap *Snapshot) bool {
	if s.cfg.CacheTTL <= 0 {
		return false
	}
	return s.now().Sub(snap.FetchedAt) < s.cfg.CacheTTL
}

func cacheKey(unitID string) string {
	return fmt.Sprintf(availabilityCacheKey, unitID)
}

func blockedRangeViews(ranges []availability.ReservationRange) []dto.BlockedRange {
	views := make([]dto.BlockedRange, len(ranges))
	for i, r := range ranges {
		views[i] = dto.BlockedRange{
			From:   availability.FormatDay(r.From),
			To:     availability.FormatDay(r.To),
			Status: string(r.Status),
		}
	}
	return views
}

func pickersView(p availability.Pickers) dto.PickersView {
	return dto.PickersView{CheckIn: pickerView(p.CheckIn), CheckOut: pickerView(p.CheckOut)}
}

func pickerView(p availability.PickerConfig) dto.PickerView {
	view := dto.PickerView{
		MinDate:  availability.FormatDay(p.MinDate),
		Disabled: make([]dto.DateSpan, len(p.Disabled)),
	}
	if p.MaxDate != nil {
		limit := availability.FormatDay(*p.MaxDate)
		view.MaxDate = &limit
	}
	for i, d := range p.Disabled {
		view.Disabled[i] = dto.DateSpan{From: availability.FormatDay(d.From), To: availability.FormatDay(d.To)}
	}
	return view
}
