package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-booking-api/internal/middleware"
	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

// newTestContext builds a gin context for target, authenticated as userID when non-empty.
func newTestContext(method, target, body, userID string, role models.UserRole) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	if userID != "" {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
	}
	return c, w
}

type availabilityServiceMock struct {
	mentorID string
	added    *models.AddAvailabilityRequest
	deleted  string
	err      error
}

func (m *availabilityServiceMock) PublicAvailability(ctx context.Context, mentorID string) (*models.MentorAvailability, error) {
	m.mentorID = mentorID
	if m.err != nil {
		return nil, m.err
	}
	return &models.MentorAvailability{MentorID: mentorID, Windows: []models.AvailabilityWindow{}}, nil
}

func (m *availabilityServiceMock) List(ctx context.Context, mentorID string) (*models.MentorAvailability, error) {
	return m.PublicAvailability(ctx, mentorID)
}

func (m *availabilityServiceMock) Add(ctx context.Context, mentorID string, req models.AddAvailabilityRequest) (*models.AvailabilityWindow, error) {
	m.mentorID = mentorID
	m.added = &req
	if m.err != nil {
		return nil, m.err
	}
	return &models.AvailabilityWindow{ID: "w-1", MentorID: mentorID, DayOfWeek: req.DayOfWeek, Active: true}, nil
}

func (m *availabilityServiceMock) Delete(ctx context.Context, mentorID, windowID string) error {
	m.mentorID = mentorID
	m.deleted = windowID
	return m.err
}

func TestAvailabilityHandlerPublic(t *testing.T) {
	svc := &availabilityServiceMock{}
	h := NewAvailabilityHandler(svc)
	c, w := newTestContext(http.MethodGet, "/mentors/mentor-1/availability", "", "", "")
	c.Params = gin.Params{{Key: "id", Value: "mentor-1"}}

	h.Public(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mentor-1", svc.mentorID)
	assert.Contains(t, w.Body.String(), `"mentor_id":"mentor-1"`)
}

func TestAvailabilityHandlerAdd(t *testing.T) {
	svc := &availabilityServiceMock{}
	h := NewAvailabilityHandler(svc)
	c, w := newTestContext(http.MethodPost, "/mentors/me/availability",
		`{"day_of_week":"MONDAY","start_time":"14:00","end_time":"16:00"}`, "mentor-1", models.RoleMentor)

	h.Add(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.added)
	assert.Equal(t, models.DayOfWeek("MONDAY"), svc.added.DayOfWeek)
	assert.Equal(t, "mentor-1", svc.mentorID)
}

func TestAvailabilityHandlerAddInvalidPayload(t *testing.T) {
	svc := &availabilityServiceMock{}
	h := NewAvailabilityHandler(svc)
	c, w := newTestContext(http.MethodPost, "/mentors/me/availability", `{"day_of_week":`, "mentor-1", models.RoleMentor)

	h.Add(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.added)
}

func TestAvailabilityHandlerAddConflict(t *testing.T) {
	svc := &availabilityServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "window overlaps")}
	h := NewAvailabilityHandler(svc)
	c, w := newTestContext(http.MethodPost, "/mentors/me/availability",
		`{"day_of_week":"MONDAY","start_time":"14:00","end_time":"16:00"}`, "mentor-1", models.RoleMentor)

	h.Add(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONFLICT"`)
}

func TestAvailabilityHandlerDelete(t *testing.T) {
	svc := &availabilityServiceMock{}
	h := NewAvailabilityHandler(svc)
	c, _ := newTestContext(http.MethodDelete, "/mentors/me/availability/w-1", "", "mentor-1", models.RoleMentor)
	c.Params = gin.Params{{Key: "availabilityId", Value: "w-1"}}

	h.Delete(c)

	require.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "w-1", svc.deleted)
}

func TestAvailabilityHandlerDeleteRequiresUser(t *testing.T) {
	svc := &availabilityServiceMock{}
	h := NewAvailabilityHandler(svc)
	c, w := newTestContext(http.MethodDelete, "/mentors/me/availability/w-1", "", "", "")

	h.Delete(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.deleted)
}

func TestAvailabilityHandlerDeleteForbidden(t *testing.T) {
	svc := &availabilityServiceMock{err: appErrors.ErrForbidden}
	h := NewAvailabilityHandler(svc)
	c, w := newTestContext(http.MethodDelete, "/mentors/me/availability/w-9", "", "mentor-1", models.RoleMentor)
	c.Params = gin.Params{{Key: "availabilityId", Value: "w-9"}}

	h.Delete(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}
