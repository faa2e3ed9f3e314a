package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-booking-api/internal/middleware"
	"github.com/noah-isme/mentor-booking-api/internal/models"
	"github.com/noah-isme/mentor-booking-api/internal/service"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
	"github.com/noah-isme/mentor-booking-api/pkg/response"
)

type tutorialSlotService interface {
	Location() *time.Location
	CachedTutorial(ctx context.Context, tutorialID string) (*models.Tutorial, bool, error)
	GenerateSlots(ctx context.Context, tutorialID string, date time.Time) (*models.AvailableSlots, error)
}

type monthOccupancyService interface {
	ComputeMonthOccupancy(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error)
}

type occupancyExporter interface {
	Export(ctx context.Context, tutorialID, month, format string) (*service.OccupancyExport, error)
}

type eligibilityService interface {
	Eligibility(ctx context.Context, menteeID, tutorialID string) (*models.BookingEligibility, error)
}

// TutorialHandler serves tutorial detail, slot listings and month occupancy.
type TutorialHandler struct {
	slots       tutorialSlotService
	occupancy   monthOccupancyService
	exporter    occupancyExporter
	eligibility eligibilityService
}

// NewTutorialHandler constructs the handler.
func NewTutorialHandler(slots tutorialSlotService, occupancy monthOccupancyService, exporter occupancyExporter, eligibility eligibilityService) *TutorialHandler {
	return &TutorialHandler{slots: slots, occupancy: occupancy, exporter: exporter, eligibility: eligibility}
}

// Get godoc
// @Summary Tutorial detail
// @Tags Tutorials
// @Produce json
// @Param id path string true "Tutorial ID"
// @Success 200 {object} response.Envelope
// @Router /tutorials/{id} [get]
func (h *TutorialHandler) Get(c *gin.Context) {
	tutorial, hit, err := h.slots.CachedTutorial(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, tutorial, nil, middleware.ExtractMeta(c))
}

// AvailableSlots godoc
// @Summary Candidate slots for one date
// @Tags Tutorials
// @Produce json
// @Param id path string true "Tutorial ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /tutorials/{id}/available-slots [get]
func (h *TutorialHandler) AvailableSlots(c *gin.Context) {
	date, err := models.ParseDate(strings.TrimSpace(c.Query("date")), h.slots.Location())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "date must be YYYY-MM-DD"))
		return
	}
	slots, err := h.slots.GenerateSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, slots.TutorialCached)
	response.JSON(c, http.StatusOK, slots, nil, middleware.ExtractMeta(c))
}

// Occupancy godoc
// @Summary Per-day occupancy tiers for a month
// @Tags Tutorials
// @Produce json
// @Param id path string true "Tutorial ID"
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /tutorials/{id}/occupancy [get]
func (h *TutorialHandler) Occupancy(c *gin.Context) {
	month, err := models.ParseMonth(strings.TrimSpace(c.Query("month")), h.slots.Location())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "month must be YYYY-MM"))
		return
	}
	occupancy, err := h.occupancy.ComputeMonthOccupancy(c.Request.Context(), c.Param("id"), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	meta["failed_dates"] = len(occupancy.FailedDates)
	response.JSON(c, http.StatusOK, occupancy, nil, meta)
}

// ExportOccupancy godoc
// @Summary Download a month's occupancy as CSV or PDF
// @Tags Tutorials
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Tutorial ID"
// @Param month query string true "Month (YYYY-MM)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /tutorials/{id}/occupancy/export [get]
func (h *TutorialHandler) ExportOccupancy(c *gin.Context) {
	out, err := h.exporter.Export(c.Request.Context(), c.Param("id"), c.Query("month"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+out.Filename+"\"")
	c.Data(http.StatusOK, out.ContentType, out.Payload)
}

// Eligibility godoc
// @Summary Check whether the mentee may start a booking
// @Tags Tutorials
// @Produce json
// @Param id path string true "Tutorial ID"
// @Success 200 {object} response.Envelope
// @Router /tutorials/{id}/booking-eligibility [get]
func (h *TutorialHandler) Eligibility(c *gin.Context) {
	menteeID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.eligibility.Eligibility(c.Request.Context(), menteeID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
