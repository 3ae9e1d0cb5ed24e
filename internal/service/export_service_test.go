package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
)

func newTestExportService(hostID int64) *ExportService {
	calendars := newTestAvailabilityService(staticSource(pendingJune(), nil), nil, AvailabilityConfig{})
	units := &unitSourceStub{unit: &models.Unit{ID: 7, HostID: hostID, Title: "Cabana del Lago", PricePerNight: 100000, MaxGuests: 4}}
	return NewExportService(calendars, units, nil, nil, nil)
}

func hostClaims(sub string) *models.Claims {
	claims := guestClaims(sub)
	claims.Roles = []string{models.RoleHost}
	return claims
}

func TestExportServiceOccupancyCSV(t *testing.T) {
	svc := newTestExportService(3)

	file, err := svc.OccupancyReport(context.Background(), hostClaims("3"), "7", dto.OccupancyExportQuery{From: "2024-06-01", To: "2024-06-07"})
	require.NoError(t, err)
	assert.Equal(t, "occupancy_7_2024-06-01_2024-06-07.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Date,Weekday,Blocked,Status", lines[0])
	assert.Equal(t, "2024-06-03,Monday,yes,pending", lines[3])
	assert.Equal(t, "2024-06-06,Thursday,,none", lines[6])
}

func TestExportServiceOccupancyPDF(t *testing.T) {
	svc := newTestExportService(3)

	file, err := svc.OccupancyReport(context.Background(), hostClaims("3"), "7", dto.OccupancyExportQuery{From: "2024-06-01", To: "2024-06-30", Format: "PDF"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestExportServiceOccupancyRejectsOtherHosts(t *testing.T) {
	svc := newTestExportService(3)

	_, err := svc.OccupancyReport(context.Background(), hostClaims("4"), "7", dto.OccupancyExportQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceOccupancyRejectsUnitWithoutHost(t *testing.T) {
	svc := newTestExportService(0)

	_, err := svc.OccupancyReport(context.Background(), hostClaims("999"), "7", dto.OccupancyExportQuery{From: "2024-06-01", To: "2024-06-07"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceOccupancyRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(3)

	_, err := svc.OccupancyReport(context.Background(), hostClaims("3"), "7", dto.OccupancyExportQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
