package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	"github.com/noah-isme/mentor-booking-api/internal/repository"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

func newLessonFixture() (*mockLessonRepo, *LessonService, *[]models.LessonStatus) {
	repo := &mockLessonRepo{lessons: []models.Lesson{
		{ID: "l-req", MentorID: "mentor-1", MenteeID: "mentee-1", TicketID: "t-1", Status: models.LessonRequested},
		{ID: "l-conf", MentorID: "mentor-1", MenteeID: "mentee-1", TicketID: "t-1", Status: models.LessonConfirmed},
		{ID: "l-other", MentorID: "mentor-2", MenteeID: "mentee-2", TicketID: "t-2", Status: models.LessonRequested},
	}}
	svc := NewLessonService(repo, nil, NewMetricsService(), nil)
	svc.now = func() time.Time { return ticketNow }
	var fired []models.LessonStatus
	svc.OnTransition(func(ctx context.Context, lesson *models.Lesson) {
		fired = append(fired, lesson.Status)
	})
	return repo, svc, &fired
}

func TestLessonServiceLists(t *testing.T) {
	_, svc, _ := newLessonFixture()

	mine, err := svc.ListMine(context.Background(), "mentee-1", nil)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	status := models.LessonRequested
	requests, err := svc.ListRequests(context.Background(), "mentor-1", &status)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "l-req", requests[0].ID)

	byTicket, err := svc.ListForTicket(context.Background(), "mentee-1", "t-2", nil)
	require.NoError(t, err)
	assert.Empty(t, byTicket)

	none, err := svc.ListMine(context.Background(), "nobody", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)

	bogus := models.LessonStatus("LOST")
	_, err = svc.ListMine(context.Background(), "mentee-1", &bogus)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLessonServiceConfirm(t *testing.T) {
	repo, svc, fired := newLessonFixture()

	lesson, err := svc.Confirm(context.Background(), "mentor-1", "l-req")
	require.NoError(t, err)
	assert.Equal(t, models.LessonConfirmed, lesson.Status)
	assert.Equal(t, []models.LessonStatus{models.LessonConfirmed}, repo.transitions)
	assert.Equal(t, []bool{false}, repo.restored)
	assert.Equal(t, []models.LessonStatus{models.LessonConfirmed}, *fired)
}

func TestLessonServiceRejectRestoresCredit(t *testing.T) {
	repo, svc, _ := newLessonFixture()

	_, err := svc.Reject(context.Background(), "mentor-1", "l-req", models.RejectLessonRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	lesson, err := svc.Reject(context.Background(), "mentor-1", "l-req", models.RejectLessonRequest{Reason: "fully booked that week"})
	require.NoError(t, err)
	assert.Equal(t, models.LessonRejected, lesson.Status)
	require.NotNil(t, lesson.RejectReason)
	assert.Equal(t, "fully booked that week", *lesson.RejectReason)
	assert.Equal(t, []bool{true}, repo.restored)
}

func TestLessonServiceLifecycleGuards(t *testing.T) {
	repo, svc, fired := newLessonFixture()

	_, err := svc.Confirm(context.Background(), "mentor-1", "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Confirm(context.Background(), "mentor-1", "l-other")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Complete(context.Background(), "mentor-1", "l-req")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))

	lesson, err := svc.Start(context.Background(), "mentor-1", "l-conf")
	require.NoError(t, err)
	assert.Equal(t, models.LessonInProgress, lesson.Status)

	lesson, err = svc.Complete(context.Background(), "mentor-1", "l-conf")
	require.NoError(t, err)
	assert.Equal(t, models.LessonCompleted, lesson.Status)

	repo.transitErr = repository.ErrStatusChanged
	_, err = svc.Confirm(context.Background(), "mentor-1", "l-req")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
	assert.Len(t, *fired, 2)
}
