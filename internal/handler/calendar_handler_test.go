package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/middleware"
	"github.com/noah-isme/stay-booking-api/internal/service"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

type calendarServiceMock struct {
	calendarResp   *dto.CalendarResponse
	calendarHit    bool
	calendarErr    error
	refreshResp    *service.Snapshot
	refreshErr     error
	lastUnitID     string
	lastQuery      dto.CalendarQuery
	calendarCalled bool
	refreshCalled  bool
}

func (m *calendarServiceMock) Calendar(ctx context.Context, unitID string, query dto.CalendarQuery) (*dto.CalendarResponse, bool, error) {
	m.calendarCalled = true
	m.lastUnitID = unitID
	m.lastQuery = query
	return m.calendarResp, m.calendarHit, m.calendarErr
}

func (m *calendarServiceMock) Refresh(ctx context.Context, unitID string) (*service.Snapshot, error) {
	m.refreshCalled = true
	m.lastUnitID = unitID
	return m.refreshResp, m.refreshErr
}

type envelope struct {
	Data     json.RawMessage        `json:"data"`
	Error    *appErrors.Error       `json:"error"`
	Warnings []*appErrors.Error     `json:"warnings"`
	Meta     map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newTestContext(w *httptest.ResponseRecorder, req *http.Request, params ...gin.Param) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	middleware.WithResponseMeta()(c)
	return c
}

func TestCalendarHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &calendarServiceMock{
		calendarResp: &dto.CalendarResponse{UnitID: "42", From: "2024-06-01", To: "2024-06-30"},
		calendarHit:  true,
	}
	handler := NewCalendarHandler(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/units/42/calendar?from=2024-06-01&to=2024-06-30", nil)
	c := newTestContext(w, req, gin.Param{Key: "id", Value: "42"})

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.calendarCalled)
	assert.Equal(t, "42", mockSvc.lastUnitID)
	assert.Equal(t, "2024-06-01", mockSvc.lastQuery.From)
	assert.Equal(t, "2024-06-30", mockSvc.lastQuery.To)

	env := decodeEnvelope(t, w)
	assert.Empty(t, env.Warnings)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
}

func TestCalendarHandlerGetDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	warning := appErrors.ErrDataUnavailable.Message
	mockSvc := &calendarServiceMock{
		calendarResp: &dto.CalendarResponse{UnitID: "42", Warning: warning},
	}
	handler := NewCalendarHandler(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/units/42/calendar", nil)
	c := newTestContext(w, req, gin.Param{Key: "id", Value: "42"})

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.Len(t, env.Warnings, 1)
	assert.Equal(t, appErrors.ErrDataUnavailable.Code, env.Warnings[0].Code)
	assert.Equal(t, warning, env.Meta["warning"])
}

func TestCalendarHandlerGetServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &calendarServiceMock{
		calendarErr: appErrors.Clone(appErrors.ErrValidation, "to must not be before from"),
	}
	handler := NewCalendarHandler(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/units/42/calendar?from=2024-06-10&to=2024-06-01", nil)
	c := newTestContext(w, req, gin.Param{Key: "id", Value: "42"})

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}

func TestCalendarHandlerRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fetched := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	mockSvc := &calendarServiceMock{
		refreshResp: &service.Snapshot{UnitID: "42", FetchedAt: fetched},
	}
	handler := NewCalendarHandler(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/units/42/calendar/refresh", nil)
	c := newTestContext(w, req, gin.Param{Key: "id", Value: "42"})

	handler.Refresh(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.refreshCalled)

	env := decodeEnvelope(t, w)
	var data dto.RefreshResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "42", data.UnitID)
	assert.Equal(t, 0, data.RangeCount)
	assert.Equal(t, false, env.Meta["cache_hit"])
}
