package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
	"github.com/noah-isme/mentor-booking-api/pkg/response"
)

type lessonService interface {
	ListMine(ctx context.Context, menteeID string, status *models.LessonStatus) ([]models.Lesson, error)
	ListForTicket(ctx context.Context, menteeID, ticketID string, status *models.LessonStatus) ([]models.Lesson, error)
	ListRequests(ctx context.Context, mentorID string, status *models.LessonStatus) ([]models.Lesson, error)
	Confirm(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error)
	Reject(ctx context.Context, mentorID, lessonID string, req models.RejectLessonRequest) (*models.Lesson, error)
	Start(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error)
	Complete(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error)
}

// LessonHandler exposes lesson listings and the mentor's lifecycle actions.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service lessonService) *LessonHandler {
	return &LessonHandler{service: service}
}

// ListMine godoc
// @Summary List the mentee's lessons
// @Tags Lessons
// @Produce json
// @Param status query string false "Lesson status"
// @Param ticket_id query string false "Ticket ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/my [get]
func (h *LessonHandler) ListMine(c *gin.Context) {
	menteeID, ok := currentUserID(c)
	if !ok {
		return
	}
	var (
		lessons []models.Lesson
		err     error
	)
	if ticketID := strings.TrimSpace(c.Query("ticket_id")); ticketID != "" {
		lessons, err = h.service.ListForTicket(c.Request.Context(), menteeID, ticketID, statusFilter(c))
	} else {
		lessons, err = h.service.ListMine(c.Request.Context(), menteeID, statusFilter(c))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// ListRequests godoc
// @Summary List lessons booked with the mentor
// @Tags Lessons
// @Produce json
// @Param status query string false "Lesson status"
// @Success 200 {object} response.Envelope
// @Router /lessons/requests [get]
func (h *LessonHandler) ListRequests(c *gin.Context) {
	mentorID, ok := currentUserID(c)
	if !ok {
		return
	}
	lessons, err := h.service.ListRequests(c.Request.Context(), mentorID, statusFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Confirm godoc
// @Summary Confirm a requested lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/confirm [put]
func (h *LessonHandler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

// Reject godoc
// @Summary Reject a requested lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body models.RejectLessonRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/reject [put]
func (h *LessonHandler) Reject(c *gin.Context) {
	var req models.RejectLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reject payload"))
		return
	}
	h.transition(c, func(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error) {
		return h.service.Reject(ctx, mentorID, lessonID, req)
	})
}

// Start godoc
// @Summary Start a confirmed lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/start [put]
func (h *LessonHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

// Complete godoc
// @Summary Complete a lesson in progress
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/complete [put]
func (h *LessonHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *LessonHandler) transition(c *gin.Context, fn func(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error)) {
	mentorID, ok := currentUserID(c)
	if !ok {
		return
	}
	lesson, err := fn(c.Request.Context(), mentorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}
