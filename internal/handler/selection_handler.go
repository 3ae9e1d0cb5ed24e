package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stay-booking-api/internal/dto"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/response"
)

type selectionService interface {
	SelectCheckIn(ctx context.Context, unitID string, req dto.SelectionRequest) (*dto.SelectionResponse, error)
	SelectCheckOut(ctx context.Context, unitID string, req dto.SelectionRequest) (*dto.SelectionResponse, error)
	Quote(ctx context.Context, unitID string, req dto.QuoteRequest) (*dto.QuoteResponse, error)
}

// SelectionHandler applies date picks from the booking widget.
type SelectionHandler struct {
	service selectionService
}

// NewSelectionHandler builds a new handler.
func NewSelectionHandler(service selectionService) *SelectionHandler {
	return &SelectionHandler{service: service}
}

// CheckIn godoc
// @Summary Pick a check-in day
// @Tags Selection
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body dto.SelectionRequest true "Picked day and current selection"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /units/{id}/selection/check-in [post]
func (h *SelectionHandler) CheckIn(c *gin.Context) {
	h.apply(c, h.service.SelectCheckIn)
}

// CheckOut godoc
// @Summary Pick a check-out day
// @Tags Selection
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body dto.SelectionRequest true "Picked day and current selection"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /units/{id}/selection/check-out [post]
func (h *SelectionHandler) CheckOut(c *gin.Context) {
	h.apply(c, h.service.SelectCheckOut)
}

// Quote godoc
// @Summary Price a stay
// @Tags Selection
// @Accept json
// @Produce json
// @Param id path string true "Unit ID"
// @Param payload body dto.QuoteRequest true "Stay to price"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/quote [post]
func (h *SelectionHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quote payload"))
		return
	}
	quote, err := h.service.Quote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, quote, "")
}

func (h *SelectionHandler) apply(c *gin.Context, pick func(context.Context, string, dto.SelectionRequest) (*dto.SelectionResponse, error)) {
	var req dto.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	res, err := pick(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, res, "")
}
