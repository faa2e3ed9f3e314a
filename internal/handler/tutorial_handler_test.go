package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	"github.com/noah-isme/mentor-booking-api/internal/service"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

var seoul = time.FixedZone("KST", 9*3600)

type tutorialServicesMock struct {
	slotDate     time.Time
	month        time.Time
	slotsErr     error
	occupancyErr error
	exportArgs   []string
	exportErr    error
	eligibleFor  string
	cached       bool
}

func (m *tutorialServicesMock) Location() *time.Location { return seoul }

func (m *tutorialServicesMock) CachedTutorial(ctx context.Context, tutorialID string) (*models.Tutorial, bool, error) {
	if tutorialID == "missing" {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "tutorial not found")
	}
	return &models.Tutorial{ID: tutorialID, MentorID: "mentor-1", DurationMinutes: 60}, m.cached, nil
}

func (m *tutorialServicesMock) GenerateSlots(ctx context.Context, tutorialID string, date time.Time) (*models.AvailableSlots, error) {
	m.slotDate = date
	if m.slotsErr != nil {
		return nil, m.slotsErr
	}
	return &models.AvailableSlots{
		TutorialID: tutorialID,
		Date:       date.Format(models.DateLayout),
		Duration:   60,
		Slots:      []models.CandidateSlot{{Time: models.TimeOfDay(14 * 60), Available: true}},

		TutorialCached: m.cached,
	}, nil
}

func (m *tutorialServicesMock) ComputeMonthOccupancy(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
	m.month = month
	if m.occupancyErr != nil {
		return nil, m.occupancyErr
	}
	return &models.MonthOccupancy{
		TutorialID:   tutorialID,
		Month:        month.Format(models.MonthLayout),
		Days:         map[string]models.DayOccupancy{},
		QueriedDates: []string{"2024-06-03"},
		FailedDates:  []string{"2024-06-03"},
	}, nil
}

func (m *tutorialServicesMock) Export(ctx context.Context, tutorialID, month, format string) (*service.OccupancyExport, error) {
	m.exportArgs = []string{tutorialID, month, format}
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	return &service.OccupancyExport{Filename: "occupancy-tut-1-2024-06.csv", ContentType: "text/csv; charset=utf-8", Payload: []byte("date\n")}, nil
}

func (m *tutorialServicesMock) Eligibility(ctx context.Context, menteeID, tutorialID string) (*models.BookingEligibility, error) {
	m.eligibleFor = menteeID
	return &models.BookingEligibility{TutorialID: tutorialID, Eligible: false, Redirect: models.RedirectPurchase}, nil
}

func newTutorialHandler(m *tutorialServicesMock) *TutorialHandler {
	return NewTutorialHandler(m, m, m, m)
}

func TestTutorialHandlerGet(t *testing.T) {
	h := newTutorialHandler(&tutorialServicesMock{})

	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_hit":false`)

	c, w = newTestContext(http.MethodGet, "/tutorials/missing", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTutorialHandlerAvailableSlots(t *testing.T) {
	m := &tutorialServicesMock{}
	h := newTutorialHandler(m)
	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1/available-slots?date=2024-06-03", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}

	h.AvailableSlots(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, seoul), m.slotDate)
	assert.Contains(t, w.Body.String(), `"time":"14:00"`)
	assert.Contains(t, w.Body.String(), `"cache_hit":false`)
	assert.NotContains(t, w.Body.String(), "TutorialCached")
}

func TestTutorialHandlerReportsCacheHit(t *testing.T) {
	h := newTutorialHandler(&tutorialServicesMock{cached: true})

	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)

	c, w = newTestContext(http.MethodGet, "/tutorials/tut-1/available-slots?date=2024-06-03", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}
	h.AvailableSlots(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)
}

func TestTutorialHandlerAvailableSlotsRejectsBadDate(t *testing.T) {
	m := &tutorialServicesMock{}
	h := newTutorialHandler(m)
	for _, target := range []string{"/tutorials/tut-1/available-slots", "/tutorials/tut-1/available-slots?date=06/03/2024"} {
		c, w := newTestContext(http.MethodGet, target, "", "", "")
		c.Params = gin.Params{{Key: "id", Value: "tut-1"}}
		h.AvailableSlots(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
	assert.True(t, m.slotDate.IsZero())
}

func TestTutorialHandlerAvailableSlotsUnavailable(t *testing.T) {
	h := newTutorialHandler(&tutorialServicesMock{slotsErr: appErrors.Clone(appErrors.ErrSlotsUnavailable, "try again")})
	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1/available-slots?date=2024-06-03", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}

	h.AvailableSlots(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"SLOTS_UNAVAILABLE"`)
}

func TestTutorialHandlerOccupancy(t *testing.T) {
	m := &tutorialServicesMock{}
	h := newTutorialHandler(m)
	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1/occupancy?month=2024-06", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}

	h.Occupancy(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, seoul), m.month)
	assert.Contains(t, w.Body.String(), `"failed_dates":1`)

	c, w = newTestContext(http.MethodGet, "/tutorials/tut-1/occupancy?month=2024-6-1", "", "", "")
	h.Occupancy(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTutorialHandlerExportOccupancy(t *testing.T) {
	m := &tutorialServicesMock{}
	h := newTutorialHandler(m)
	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1/occupancy/export?month=2024-06&format=csv", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}

	h.ExportOccupancy(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"tut-1", "2024-06", "csv"}, m.exportArgs)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "occupancy-tut-1-2024-06.csv")
	assert.Equal(t, "date\n", w.Body.String())
}

func TestTutorialHandlerExportOccupancyValidation(t *testing.T) {
	h := newTutorialHandler(&tutorialServicesMock{exportErr: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")})
	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1/occupancy/export?month=2024-06&format=doc", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}

	h.ExportOccupancy(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTutorialHandlerEligibility(t *testing.T) {
	m := &tutorialServicesMock{}
	h := newTutorialHandler(m)

	c, w := newTestContext(http.MethodGet, "/tutorials/tut-1/booking-eligibility", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}
	h.Eligibility(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodGet, "/tutorials/tut-1/booking-eligibility", "", "mentee-1", models.RoleMentee)
	c.Params = gin.Params{{Key: "id", Value: "tut-1"}}
	h.Eligibility(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mentee-1", m.eligibleFor)
	assert.Contains(t, w.Body.String(), `"redirect":"purchase"`)
}
