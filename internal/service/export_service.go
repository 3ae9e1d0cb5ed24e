package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/stay-booking-api/internal/availability"
	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

type calendarWindow interface {
	Calendar(ctx context.Context, unitID string, query dto.CalendarQuery) (*dto.CalendarResponse, bool, error)
}

// ExportFile is a rendered document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders day-by-day occupancy reports for hosts.
type ExportService struct {
	calendars calendarWindow
	units     unitSource
	renderers map[string]renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(calendars calendarWindow, units unitSource, logger *zap.Logger, csv, pdf renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		calendars: calendars,
		units:     units,
		renderers: map[string]renderer{FormatCSV: csv, FormatPDF: pdf},
		logger:    logger,
	}
}

var occupancyHeaders = []string{"Date", "Weekday", "Blocked", "Status"}

// OccupancyReport renders the unit's calendar window for its host.
func (s *ExportService) OccupancyReport(ctx context.Context, claims *models.Claims, unitID string, query dto.OccupancyExportQuery) (*ExportFile, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = FormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	unit, err := s.units.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if claims == nil || unit == nil || unit.HostID == 0 || strconv.FormatInt(unit.HostID, 10) != claims.UserID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the unit's host may export its occupancy")
	}

	view, _, err := s.calendars.Calendar(ctx, unitID, dto.CalendarQuery{From: query.From, To: query.To})
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: occupancyHeaders, Highlight: "Blocked"}
	occupied := 0
	for _, day := range view.Days {
		blocked := ""
		if day.Blocked {
			blocked = "yes"
			occupied++
		}
		date, _ := availability.ParseDay(day.Date)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    day.Date,
			"Weekday": date.Weekday().String(),
			"Blocked": blocked,
			"Status":  day.StatusTag,
		})
	}

	name := unit.Title
	if name == "" {
		name = "Unit " + unitID
	}
	title := fmt.Sprintf("%s occupancy %s to %s (%d of %d days reserved)", name, view.From, view.To, occupied, len(view.Days))
	if view.Warning != "" {
		title += " - " + view.Warning
	}

	body, err := r.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render occupancy report")
	}

	s.logger.Info("occupancy report rendered",
		zap.String("unit_id", unitID),
		zap.String("format", format),
		zap.Int("days", len(view.Days)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("occupancy_%s_%s_%s.%s", sanitizeFilename(unitID), view.From, view.To, format),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
