package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/middleware"
	"github.com/noah-isme/stay-booking-api/internal/models"
	"github.com/noah-isme/stay-booking-api/internal/service"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

type exporterMock struct {
	file      *service.ExportFile
	err       error
	lastQuery dto.OccupancyExportQuery
	called    bool
}

func (m *exporterMock) OccupancyReport(ctx context.Context, claims *models.Claims, unitID string, query dto.OccupancyExportQuery) (*service.ExportFile, error) {
	m.called = true
	m.lastQuery = query
	return m.file, m.err
}

func TestExportHandlerOccupancy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exporterMock{file: &service.ExportFile{
		Filename:    "occupancy_42_2024-06-01_2024-06-30.csv",
		ContentType: "text/csv",
		Body:        []byte("Date,Weekday,Blocked,Status\n"),
	}}
	handler := NewExportHandler(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/units/42/occupancy/export?from=2024-06-01&to=2024-06-30&format=csv", nil)
	c := newTestContext(w, req, gin.Param{Key: "id", Value: "42"})
	c.Set(middleware.ContextUserKey, guest())

	handler.Occupancy(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.called)
	assert.Equal(t, "csv", mockSvc.lastQuery.Format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "occupancy_42_2024-06-01_2024-06-30.csv")
	assert.Equal(t, "Date,Weekday,Blocked,Status\n", w.Body.String())
}

func TestExportHandlerOccupancyForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exporterMock{err: appErrors.Clone(appErrors.ErrForbidden, "only the unit's host can export occupancy")}
	handler := NewExportHandler(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/units/42/occupancy/export", nil)
	c := newTestContext(w, req, gin.Param{Key: "id", Value: "42"})
	c.Set(middleware.ContextUserKey, guest())

	handler.Occupancy(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
