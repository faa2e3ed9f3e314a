package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type lessonServiceMock struct {
	calls    []string
	ticketID string
	status   *models.LessonStatus
	reject   *models.RejectLessonRequest
	err      error
}

func (m *lessonServiceMock) record(call string, status *models.LessonStatus) ([]models.Lesson, error) {
	m.calls = append(m.calls, call)
	m.status = status
	if m.err != nil {
		return nil, m.err
	}
	return []models.Lesson{}, nil
}

func (m *lessonServiceMock) ListMine(ctx context.Context, menteeID string, status *models.LessonStatus) ([]models.Lesson, error) {
	return m.record("mine", status)
}

func (m *lessonServiceMock) ListForTicket(ctx context.Context, menteeID, ticketID string, status *models.LessonStatus) ([]models.Lesson, error) {
	m.ticketID = ticketID
	return m.record("ticket", status)
}

func (m *lessonServiceMock) ListRequests(ctx context.Context, mentorID string, status *models.LessonStatus) ([]models.Lesson, error) {
	return m.record("requests", status)
}

func (m *lessonServiceMock) act(call, lessonID string, status models.LessonStatus) (*models.Lesson, error) {
	m.calls = append(m.calls, call)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Lesson{ID: lessonID, Status: status}, nil
}

func (m *lessonServiceMock) Confirm(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error) {
	return m.act("confirm", lessonID, models.LessonConfirmed)
}

func (m *lessonServiceMock) Reject(ctx context.Context, mentorID, lessonID string, req models.RejectLessonRequest) (*models.Lesson, error) {
	m.reject = &req
	return m.act("reject", lessonID, models.LessonRejected)
}

func (m *lessonServiceMock) Start(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error) {
	return m.act("start", lessonID, models.LessonInProgress)
}

func (m *lessonServiceMock) Complete(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error) {
	return m.act("complete", lessonID, models.LessonCompleted)
}

func TestLessonHandlerListMine(t *testing.T) {
	m := &lessonServiceMock{}
	h := NewLessonHandler(m)

	c, w := newTestContext(http.MethodGet, "/lessons/my?status=requested", "", "mentee-1", models.RoleMentee)
	h.ListMine(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, m.status)
	assert.Equal(t, models.LessonRequested, *m.status)

	c, w = newTestContext(http.MethodGet, "/lessons/my?ticket_id=t-1", "", "mentee-1", models.RoleMentee)
	h.ListMine(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t-1", m.ticketID)
	assert.Nil(t, m.status)
	assert.Equal(t, []string{"mine", "ticket"}, m.calls)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestLessonHandlerListRequestsInvalidStatus(t *testing.T) {
	m := &lessonServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "unknown lesson status")}
	h := NewLessonHandler(m)
	c, w := newTestContext(http.MethodGet, "/lessons/requests?status=lost", "", "mentor-1", models.RoleMentor)

	h.ListRequests(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLessonHandlerTransitions(t *testing.T) {
	m := &lessonServiceMock{}
	h := NewLessonHandler(m)
	actions := []struct {
		name string
		fn   gin.HandlerFunc
		body string
		want models.LessonStatus
	}{
		{"confirm", h.Confirm, "", models.LessonConfirmed},
		{"reject", h.Reject, `{"reason":"schedule clash"}`, models.LessonRejected},
		{"start", h.Start, "", models.LessonInProgress},
		{"complete", h.Complete, "", models.LessonCompleted},
	}
	for _, action := range actions {
		c, w := newTestContext(http.MethodPut, "/lessons/l-1/"+action.name, action.body, "mentor-1", models.RoleMentor)
		c.Params = gin.Params{{Key: "id", Value: "l-1"}}
		action.fn(c)
		require.Equal(t, http.StatusOK, w.Code, action.name)
		assert.Contains(t, w.Body.String(), `"status":"`+string(action.want)+`"`, action.name)
	}
	require.NotNil(t, m.reject)
	assert.Equal(t, "schedule clash", m.reject.Reason)
}

func TestLessonHandlerRejectRequiresPayload(t *testing.T) {
	m := &lessonServiceMock{}
	h := NewLessonHandler(m)
	c, w := newTestContext(http.MethodPut, "/lessons/l-1/reject", "", "mentor-1", models.RoleMentor)
	c.Params = gin.Params{{Key: "id", Value: "l-1"}}

	h.Reject(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, m.calls)
}

func TestLessonHandlerInvalidState(t *testing.T) {
	m := &lessonServiceMock{err: appErrors.Clone(appErrors.ErrInvalidState, "lesson cannot be started")}
	h := NewLessonHandler(m)
	c, w := newTestContext(http.MethodPut, "/lessons/l-1/start", "", "mentor-1", models.RoleMentor)
	c.Params = gin.Params{{Key: "id", Value: "l-1"}}

	h.Start(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INVALID_STATE"`)
}
