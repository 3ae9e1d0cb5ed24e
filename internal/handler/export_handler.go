package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	"github.com/noah-isme/stay-booking-api/internal/service"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/response"
)

type occupancyExporter interface {
	OccupancyReport(ctx context.Context, claims *models.Claims, unitID string, query dto.OccupancyExportQuery) (*service.ExportFile, error)
}

// ExportHandler streams host occupancy reports.
type ExportHandler struct {
	service occupancyExporter
}

// NewExportHandler builds a new handler.
func NewExportHandler(service occupancyExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Occupancy godoc
// @Summary Export a unit's occupancy
// @Tags Hosts
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Unit ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /units/{id}/occupancy/export [get]
func (h *ExportHandler) Occupancy(c *gin.Context) {
	var query dto.OccupancyExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.OccupancyReport(c.Request.Context(), claimsFromContext(c), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}
