package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/middleware"
	"github.com/noah-isme/stay-booking-api/internal/service"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/response"
)

type calendarService interface {
	Calendar(ctx context.Context, unitID string, query dto.CalendarQuery) (*dto.CalendarResponse, bool, error)
	Refresh(ctx context.Context, unitID string) (*service.Snapshot, error)
}

// CalendarHandler serves the availability calendar of a unit.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler builds a new handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Get godoc
// @Summary Availability calendar for a unit
// @Tags Availability
// @Produce json
// @Param id path string true "Unit ID"
// @Param from query string false "First day (YYYY-MM-DD), defaults to today"
// @Param to query string false "Last day (YYYY-MM-DD), defaults to 60 days from from"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/calendar [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	var query dto.CalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid calendar query"))
		return
	}
	view, hit, err := h.service.Calendar(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respond(c, http.StatusOK, view, view.Warning)
}

// Refresh godoc
// @Summary Reload a unit's reservations from the backend
// @Tags Availability
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/calendar/refresh [post]
func (h *CalendarHandler) Refresh(c *gin.Context) {
	unitID := c.Param("id")
	snap, err := h.service.Refresh(c.Request.Context(), unitID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, false)
	respond(c, http.StatusOK, dto.RefreshResponse{
		UnitID:     unitID,
		RangeCount: len(snap.Ranges),
		FetchedAt:  snap.FetchedAt,
		Warning:    snap.Warning,
	}, snap.Warning)
}
