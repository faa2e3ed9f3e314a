package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
	"github.com/noah-isme/mentor-booking-api/pkg/response"
)

type ticketService interface {
	ListMine(ctx context.Context, menteeID string) ([]models.Ticket, error)
}

type lessonBookingService interface {
	CreateLessonBooking(ctx context.Context, menteeID, ticketID string, req models.CreateLessonRequest) (*models.Lesson, error)
}

// TicketHandler exposes the mentee's tickets and direct lesson booking.
type TicketHandler struct {
	tickets  ticketService
	bookings lessonBookingService
}

// NewTicketHandler constructs the handler.
func NewTicketHandler(tickets ticketService, bookings lessonBookingService) *TicketHandler {
	return &TicketHandler{tickets: tickets, bookings: bookings}
}

// ListMine godoc
// @Summary List the mentee's tickets
// @Tags Tickets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tickets/my [get]
func (h *TicketHandler) ListMine(c *gin.Context) {
	menteeID, ok := currentUserID(c)
	if !ok {
		return
	}
	tickets, err := h.tickets.ListMine(c.Request.Context(), menteeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tickets, nil)
}

// CreateLesson godoc
// @Summary Book a lesson slot against a ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param payload body models.CreateLessonRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Router /tickets/{id}/lessons [post]
func (h *TicketHandler) CreateLesson(c *gin.Context) {
	menteeID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	lesson, err := h.bookings.CreateLessonBooking(c.Request.Context(), menteeID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}
