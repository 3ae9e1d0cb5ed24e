package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stay-booking-api/internal/dto"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/response"
)

type bookingService interface {
	Submit(ctx context.Context, claims *models.Claims, bearer string, req dto.CreateBookingRequest) (*models.BookingRequest, error)
	Get(ctx context.Context, claims *models.Claims, id string) (*models.BookingRequest, error)
}

// BookingHandler accepts confirmed selections for submission.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// Create godoc
// @Summary Submit a booking
// @Description Validates the selection and queues it for submission to the platform backend.
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), bearerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+booking.ID)
	response.Accepted(c, booking)
}

// Get godoc
// @Summary Booking request status
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking request ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking)
}
