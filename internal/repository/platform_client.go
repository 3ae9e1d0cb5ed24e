package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/noah-isme/stay-booking-api/internal/availability"
	"github.com/noah-isme/stay-booking-api/internal/models"
	"github.com/noah-isme/stay-booking-api/pkg/config"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/middleware/requestid"
)

const (
	maxUpstreamBody     = 4 << 20
	reservationPageSize = 100
	maxReservationPages = 50
	maxUnitGuests       = availability.MaxGuestOptions
	idempotencyHeader   = "Idempotency-Key"
)

// PlatformClient talks to the accommodation platform REST backend.
type PlatformClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPlatformClient constructs the client. A nil http.Client gets one with cfg.Timeout.
func NewPlatformClient(cfg config.UpstreamConfig, client *http.Client, logger *zap.Logger) *PlatformClient {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlatformClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// ListUnitReservations returns every reservation the backend holds for the unit.
// Both a bare JSON array and a paged {"content": [...]} body are accepted; paged
// bodies are followed until the last page or maxReservationPages.
func (c *PlatformClient) ListUnitReservations(ctx context.Context, unitID string) ([]models.Reservation, error) {
	path := "/reservations/accommodation/" + url.PathEscape(unitID)
	reservations := []models.Reservation{}

	for page := 0; page < maxReservationPages; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(reservationPageSize))
		body, err := c.do(ctx, http.MethodGet, path+"?"+query.Encode(), "", nil, nil)
		if err != nil {
			return nil, err
		}

		doc := gjson.ParseBytes(body)
		if doc.IsArray() {
			return appendReservations(reservations, doc), nil
		}
		list := doc.Get("content")
		if !list.IsArray() {
			if list.Type == gjson.Null && page == 0 {
				return reservations, nil
			}
			return nil, appErrors.Clone(appErrors.ErrUpstream, "unexpected reservation list payload")
		}
		reservations = appendReservations(reservations, list)

		if lastPage(doc, page, len(list.Array())) {
			return reservations, nil
		}
	}

	c.logger.Warn("reservation list truncated", zap.String("unit_id", unitID), zap.Int("pages", maxReservationPages))
	return reservations, nil
}

// lastPage reads Spring-style paging fields. A page without any of them ends the walk.
func lastPage(doc gjson.Result, page, size int) bool {
	if size == 0 {
		return true
	}
	if last := doc.Get("last"); last.Exists() {
		return last.Bool()
	}
	if total := doc.Get("totalPages"); total.Exists() {
		number := page
		if n := doc.Get("number"); n.Exists() {
			number = int(n.Int())
		}
		return number+1 >= int(total.Int())
	}
	return true
}

func appendReservations(dst []models.Reservation, list gjson.Result) []models.Reservation {
	for _, item := range list.Array() {
		dst = append(dst, models.Reservation{
			ID:              item.Get("id").Int(),
			AccommodationID: item.Get("accommodationId").Int(),
			UserID:          item.Get("userId").Int(),
			HostID:          item.Get("hostId").Int(),
			StartDate:       item.Get("startDate").String(),
			EndDate:         item.Get("endDate").String(),
			Nights:          int(item.Get("nights").Int()),
			TotalPrice:      item.Get("totalPrice").Float(),
			Status:          item.Get("status").String(),
			CreatedAt:       item.Get("createdAt").String(),
		})
	}
	return dst
}

// GetUnit loads the pricing and capacity fields of an accommodation.
func (c *PlatformClient) GetUnit(ctx context.Context, unitID string) (*models.Unit, error) {
	body, err := c.do(ctx, http.MethodGet, "/accommodations/"+url.PathEscape(unitID), "", nil, nil)
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "unexpected accommodation payload")
	}
	hostID := doc.Get("hostId")
	if !hostID.Exists() {
		hostID = doc.Get("host.id")
	}
	active := true
	if v := doc.Get("active"); v.Exists() {
		active = v.Bool()
	}
	maxGuests := int(doc.Get("maxGuests").Int())
	if maxGuests > maxUnitGuests {
		c.logger.Warn("capping unit capacity", zap.String("unit_id", unitID), zap.Int("max_guests", maxGuests))
		maxGuests = maxUnitGuests
	}
	return &models.Unit{
		ID:            doc.Get("id").Int(),
		HostID:        hostID.Int(),
		Title:         doc.Get("title").String(),
		PricePerNight: doc.Get("pricePerNight").Float(),
		MaxGuests:     maxGuests,
		Active:        active,
	}, nil
}

// CreateReservation submits a reservation on behalf of the bearer. idempotencyKey
// is sent as Idempotency-Key so a retried submission can be recognised upstream.
func (c *PlatformClient) CreateReservation(ctx context.Context, bearer, idempotencyKey string, payload models.CreateReservation) (*models.Reservation, error) {
	var headers http.Header
	if idempotencyKey != "" {
		headers = http.Header{idempotencyHeader: []string{idempotencyKey}}
	}
	body, err := c.do(ctx, http.MethodPost, "/reservations", bearer, headers, payload)
	if err != nil {
		return nil, err
	}
	var created models.Reservation
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode created reservation")
	}
	return &created, nil
}

func (c *PlatformClient) do(ctx context.Context, method, path, bearer string, headers http.Header, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("platform request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read platform response")
	}

	c.logger.Debug("platform request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, upstreamError(resp.StatusCode, body)
	}
	return body, nil
}

// upstreamError maps a backend failure onto the service's error set.
func upstreamError(status int, body []byte) error {
	message := gjson.GetBytes(body, "message").String()
	if message == "" {
		message = gjson.GetBytes(body, "error").String()
	}
	cause := fmt.Errorf("platform responded %d", status)

	switch {
	case status == http.StatusNotFound:
		return appErrors.Wrap(cause, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, orDefault(message, "accommodation not found"))
	case status == http.StatusUnauthorized:
		return appErrors.Wrap(cause, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, orDefault(message, appErrors.ErrUnauthorized.Message))
	case status == http.StatusForbidden:
		return appErrors.Wrap(cause, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, orDefault(message, appErrors.ErrForbidden.Message))
	case status == http.StatusConflict:
		return appErrors.Wrap(cause, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, orDefault(message, "dates are no longer available"))
	case status < http.StatusInternalServerError:
		return appErrors.Wrap(cause, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, orDefault(message, appErrors.ErrValidation.Message))
	default:
		return appErrors.Wrap(cause, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
