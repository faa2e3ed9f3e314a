package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
	"github.com/noah-isme/mentor-booking-api/pkg/response"
)

type availabilityService interface {
	PublicAvailability(ctx context.Context, mentorID string) (*models.MentorAvailability, error)
	List(ctx context.Context, mentorID string) (*models.MentorAvailability, error)
	Add(ctx context.Context, mentorID string, req models.AddAvailabilityRequest) (*models.AvailabilityWindow, error)
	Delete(ctx context.Context, mentorID, windowID string) error
}

// AvailabilityHandler exposes mentor availability endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Public godoc
// @Summary List a mentor's active availability windows
// @Tags Availability
// @Produce json
// @Param id path string true "Mentor ID"
// @Success 200 {object} response.Envelope
// @Router /mentors/{id}/availability [get]
func (h *AvailabilityHandler) Public(c *gin.Context) {
	result, err := h.service.PublicAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListMine godoc
// @Summary List the authenticated mentor's windows
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /mentors/me/availability [get]
func (h *AvailabilityHandler) ListMine(c *gin.Context) {
	mentorID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), mentorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Add godoc
// @Summary Add a weekly availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body models.AddAvailabilityRequest true "Window"
// @Success 201 {object} response.Envelope
// @Router /mentors/me/availability [post]
func (h *AvailabilityHandler) Add(c *gin.Context) {
	mentorID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.AddAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	window, err := h.service.Add(c.Request.Context(), mentorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// Delete godoc
// @Summary Delete an availability window
// @Tags Availability
// @Param availabilityId path string true "Window ID"
// @Success 204
// @Router /mentors/me/availability/{availabilityId} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	mentorID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), mentorID, c.Param("availabilityId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
