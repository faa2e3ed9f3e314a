package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	"github.com/noah-isme/mentor-booking-api/internal/service"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
	"github.com/noah-isme/mentor-booking-api/pkg/response"
)

type bookingSessionService interface {
	Open(ctx context.Context, userID string, req models.OpenBookingSessionRequest) (*models.BookingDraft, error)
	Current(ctx context.Context, userID string) (*models.BookingDraft, error)
	SelectDate(ctx context.Context, userID string, req models.SelectDateRequest) (*models.BookingDraft, error)
	SelectTime(ctx context.Context, userID string, req models.SelectTimeRequest) (*models.BookingDraft, error)
	UpdateMessage(ctx context.Context, userID string, req models.UpdateMessageRequest) (*models.BookingDraft, error)
	Calendar(ctx context.Context, userID string, month time.Time) (*service.CalendarView, error)
	Submit(ctx context.Context, userID string) (*models.BookingResult, error)
	Close(ctx context.Context, userID string) error
}

// BookingSessionHandler exposes the mentee's booking selector.
type BookingSessionHandler struct {
	service  bookingSessionService
	location *time.Location
}

// NewBookingSessionHandler constructs the handler. Calendar months are read in location.
func NewBookingSessionHandler(service bookingSessionService, location *time.Location) *BookingSessionHandler {
	if location == nil {
		location = time.UTC
	}
	return &BookingSessionHandler{service: service, location: location}
}

// Open godoc
// @Summary Open a booking session for a tutorial
// @Tags BookingSessions
// @Accept json
// @Produce json
// @Param payload body models.OpenBookingSessionRequest true "Tutorial and optional date"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /booking-sessions [post]
func (h *BookingSessionHandler) Open(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.OpenBookingSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking session payload"))
		return
	}
	draft, err := h.service.Open(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// Current godoc
// @Summary Current booking session
// @Tags BookingSessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /booking-sessions/current [get]
func (h *BookingSessionHandler) Current(c *gin.Context) {
	h.respondDraft(c, func(ctx context.Context, userID string) (*models.BookingDraft, error) {
		return h.service.Current(ctx, userID)
	})
}

// SelectDate godoc
// @Summary Pick a date and load its slots
// @Tags BookingSessions
// @Accept json
// @Produce json
// @Param payload body models.SelectDateRequest true "Date"
// @Success 200 {object} response.Envelope
// @Router /booking-sessions/current/date [put]
func (h *BookingSessionHandler) SelectDate(c *gin.Context) {
	var req models.SelectDateRequest
	if !bindSessionPayload(c, &req) {
		return
	}
	h.respondDraft(c, func(ctx context.Context, userID string) (*models.BookingDraft, error) {
		return h.service.SelectDate(ctx, userID, req)
	})
}

// SelectTime godoc
// @Summary Pick a slot start time
// @Tags BookingSessions
// @Accept json
// @Produce json
// @Param payload body models.SelectTimeRequest true "Time"
// @Success 200 {object} response.Envelope
// @Router /booking-sessions/current/time [put]
func (h *BookingSessionHandler) SelectTime(c *gin.Context) {
	var req models.SelectTimeRequest
	if !bindSessionPayload(c, &req) {
		return
	}
	h.respondDraft(c, func(ctx context.Context, userID string) (*models.BookingDraft, error) {
		return h.service.SelectTime(ctx, userID, req)
	})
}

// UpdateMessage godoc
// @Summary Edit the request message
// @Tags BookingSessions
// @Accept json
// @Produce json
// @Param payload body models.UpdateMessageRequest true "Message"
// @Success 200 {object} response.Envelope
// @Router /booking-sessions/current/message [put]
func (h *BookingSessionHandler) UpdateMessage(c *gin.Context) {
	var req models.UpdateMessageRequest
	if !bindSessionPayload(c, &req) {
		return
	}
	h.respondDraft(c, func(ctx context.Context, userID string) (*models.BookingDraft, error) {
		return h.service.UpdateMessage(ctx, userID, req)
	})
}

// Calendar godoc
// @Summary Month occupancy for the session's tutorial
// @Tags BookingSessions
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /booking-sessions/current/calendar [get]
func (h *BookingSessionHandler) Calendar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	month, err := models.ParseMonth(strings.TrimSpace(c.Query("month")), h.location)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "month must be YYYY-MM"))
		return
	}
	view, err := h.service.Calendar(c.Request.Context(), userID, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil, map[string]interface{}{"stale": view.Stale})
}

// Submit godoc
// @Summary Submit the selected slot as a lesson booking
// @Tags BookingSessions
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /booking-sessions/current/submit [post]
func (h *BookingSessionHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.service.Submit(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil, map[string]interface{}{"refresh": result.Refresh})
}

// Close godoc
// @Summary Discard the booking session
// @Tags BookingSessions
// @Success 204
// @Router /booking-sessions/current [delete]
func (h *BookingSessionHandler) Close(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Close(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *BookingSessionHandler) respondDraft(c *gin.Context, fn func(ctx context.Context, userID string) (*models.BookingDraft, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	draft, err := fn(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

func bindSessionPayload(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking session payload"))
		return false
	}
	return true
}
