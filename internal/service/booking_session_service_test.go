package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type funcOccupancySource func(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error)

func (f funcOccupancySource) ComputeMonthOccupancy(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
	return f(ctx, tutorialID, month)
}

type sessionFixture struct {
	booking *bookingFixture
	store   *MemoryDraftStore
	svc     *BookingSessionService
}

func newSessionFixture(now time.Time) *sessionFixture {
	b := newBookingFixture(now)
	tickets := NewTicketService(b.tickets, b.slots.lessons, nil)
	tickets.now = func() time.Time { return now }
	occupancy := newOccupancyService(b.slots.svc, b.slots.metrics, now)

	store := NewMemoryDraftStore(time.Hour)
	store.now = func() time.Time { return now }
	svc := NewBookingSessionService(tickets, b.slots.svc, occupancy, b.svc, store, nil, nil)
	svc.now = func() time.Time { return now }
	return &sessionFixture{booking: b, store: store, svc: svc}
}

func TestBookingSessionFullFlow(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()

	draft, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingDateUnselected, draft.State)
	assert.Equal(t, "t-1", draft.TicketID)

	draft, err = f.svc.SelectDate(ctx, "mentee-1", models.SelectDateRequest{Date: "2024-06-03"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingSlotsReady, draft.State)
	assert.Equal(t, []string{"14:00", "15:00"}, slotTimes(draft.Slots))

	_, err = f.svc.SelectTime(ctx, "mentee-1", models.SelectTimeRequest{Time: "15:00"})
	require.NoError(t, err)
	_, err = f.svc.UpdateMessage(ctx, "mentee-1", models.UpdateMessageRequest{Message: "first lesson"})
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, "mentee-1")
	require.NoError(t, err)
	assert.Equal(t, "lesson-new", result.Lesson.ID)
	assert.Equal(t, []string{"tickets", "lessons"}, result.Refresh)
	assert.Len(t, f.booking.booked, 1)

	_, err = f.svc.Current(ctx, "mentee-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBookingSessionGate(t *testing.T) {
	f := newSessionFixture(ticketNow)
	f.booking.tickets.tickets[0].RemainingCount = 0

	_, err := f.svc.Open(context.Background(), "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Equal(t, models.RedirectPurchase, appErrors.FromError(err).Meta["redirect"])

	_, ok, _ := f.store.Get(context.Background(), "mentee-1")
	assert.False(t, ok)
}

func TestBookingSessionOpenWithDate(t *testing.T) {
	f := newSessionFixture(ticketNow)

	draft, err := f.svc.Open(context.Background(), "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1", Date: "2024-06-03"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingSlotsReady, draft.State)
	assert.Len(t, draft.Slots, 2)

	_, err = f.svc.Open(context.Background(), "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1", Date: "2024-05-27"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestBookingSessionSubmitWithoutSelection(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1", Date: "2024-06-03"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "mentee-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.booking.slots.lessons.created)

	draft, err := f.svc.Current(ctx, "mentee-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingSlotsReady, draft.State)
}

func TestBookingSessionSubmitRejected(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1", Date: "2024-06-03"})
	require.NoError(t, err)
	_, err = f.svc.SelectTime(ctx, "mentee-1", models.SelectTimeRequest{Time: "14:00"})
	require.NoError(t, err)

	// Another mentee takes the slot in the interim.
	f.booking.slots.lessons.lessons = append(f.booking.slots.lessons.lessons, models.Lesson{
		ID: "l-x", MentorID: "mentor-1", Status: models.LessonRequested, ScheduledAt: time.Date(2024, 6, 3, 14, 0, 0, 0, kst),
	})

	_, err = f.svc.Submit(ctx, "mentee-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrSlotTaken))

	draft, err := f.svc.Current(ctx, "mentee-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingSlotsReady, draft.State)
	assert.NotEmpty(t, draft.Error)
	assert.Len(t, f.booking.slots.lessons.created, 0)
}

// rejectionSaveFailsStore refuses to persist drafts that carry a booking error.
type rejectionSaveFailsStore struct {
	*MemoryDraftStore
}

func (s rejectionSaveFailsStore) Save(ctx context.Context, draft *models.BookingDraft) error {
	if draft.Error != "" {
		return errors.New("redis: connection pool timeout")
	}
	return s.MemoryDraftStore.Save(ctx, draft)
}

func TestBookingSessionSubmitRejectedDiscardsUnsavableDraft(t *testing.T) {
	f := newSessionFixture(ticketNow)
	f.svc.store = rejectionSaveFailsStore{f.store}
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1", Date: "2024-06-03"})
	require.NoError(t, err)
	_, err = f.svc.SelectTime(ctx, "mentee-1", models.SelectTimeRequest{Time: "14:00"})
	require.NoError(t, err)

	f.booking.slots.lessons.lessons = append(f.booking.slots.lessons.lessons, models.Lesson{
		ID: "l-x", MentorID: "mentor-1", Status: models.LessonRequested, ScheduledAt: time.Date(2024, 6, 3, 14, 0, 0, 0, kst),
	})

	_, err = f.svc.Submit(ctx, "mentee-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrSlotTaken))

	_, err = f.svc.Current(ctx, "mentee-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)
}

func TestBookingSessionSlotFailureStaysSelectable(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)

	f.booking.slots.lessons.occupyErr = errors.New("timeout")
	draft, err := f.svc.SelectDate(ctx, "mentee-1", models.SelectDateRequest{Date: "2024-06-03"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingSlotsReady, draft.State)
	assert.Empty(t, draft.Slots)
	assert.NotEmpty(t, draft.Error)

	f.booking.slots.lessons.occupyErr = nil
	draft, err = f.svc.SelectDate(ctx, "mentee-1", models.SelectDateRequest{Date: "2024-06-03"})
	require.NoError(t, err)
	assert.Empty(t, draft.Error)
	assert.Len(t, draft.Slots, 2)
}

func TestBookingSessionCalendar(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)

	view, err := f.svc.Calendar(ctx, "mentee-1", time.Date(2024, 6, 1, 0, 0, 0, 0, kst))
	require.NoError(t, err)
	assert.False(t, view.Stale)
	assert.Equal(t, []string{"2024-06-03", "2024-06-10", "2024-06-17", "2024-06-24"}, view.Occupancy.QueriedDates)

	draft, err := f.svc.Current(ctx, "mentee-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-06", draft.VisibleMonth)
	require.NotNil(t, draft.Occupancy)

	// A date the calendar marks unavailable cannot be picked.
	_, err = f.svc.SelectDate(ctx, "mentee-1", models.SelectDateRequest{Date: "2024-06-04"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestBookingSessionCalendarDiscardsStaleMonth(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)

	june := time.Date(2024, 6, 1, 0, 0, 0, 0, kst)
	july := time.Date(2024, 7, 1, 0, 0, 0, 0, kst)
	var julyView *CalendarView
	f.svc.occupancy = funcOccupancySource(func(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
		key := month.Format(models.MonthLayout)
		if key == "2024-06" {
			// The user flips to July while June is still computing.
			var err error
			julyView, err = f.svc.Calendar(ctx, "mentee-1", july)
			require.NoError(t, err)
		}
		return &models.MonthOccupancy{TutorialID: tutorialID, Month: key, Days: map[string]models.DayOccupancy{}}, nil
	})

	juneView, err := f.svc.Calendar(ctx, "mentee-1", june)
	require.NoError(t, err)
	assert.True(t, juneView.Stale)
	require.NotNil(t, julyView)
	assert.False(t, julyView.Stale)

	draft, err := f.svc.Current(ctx, "mentee-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-07", draft.VisibleMonth)
	assert.Equal(t, "2024-07", draft.Occupancy.Month)
}

func TestBookingSessionCalendarDiscardsReopenedSession(t *testing.T) {
	f := newSessionFixture(ticketNow)
	f.booking.slots.tutorials.tutorials["tut-2"] = &models.Tutorial{ID: "tut-2", MentorID: "mentor-1", Title: "Go concurrency", DurationMinutes: 60}
	second := usableTicket("t-2")
	second.TutorialID = "tut-2"
	f.booking.tickets.tickets = append(f.booking.tickets.tickets, second)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)

	june := time.Date(2024, 6, 1, 0, 0, 0, 0, kst)
	var reopenedView *CalendarView
	f.svc.occupancy = funcOccupancySource(func(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
		if tutorialID == "tut-1" {
			// The user switches tutorial and looks at the same month while tut-1 is computing.
			require.NoError(t, f.svc.Close(ctx, "mentee-1"))
			_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-2"})
			require.NoError(t, err)
			reopenedView, err = f.svc.Calendar(ctx, "mentee-1", month)
			require.NoError(t, err)
		}
		return &models.MonthOccupancy{TutorialID: tutorialID, Month: month.Format(models.MonthLayout), Days: map[string]models.DayOccupancy{}}, nil
	})

	staleView, err := f.svc.Calendar(ctx, "mentee-1", june)
	require.NoError(t, err)
	assert.True(t, staleView.Stale)
	require.NotNil(t, reopenedView)
	assert.False(t, reopenedView.Stale)

	draft, err := f.svc.Current(ctx, "mentee-1")
	require.NoError(t, err)
	assert.Equal(t, "tut-2", draft.TutorialID)
	require.NotNil(t, draft.Occupancy)
	assert.Equal(t, "tut-2", draft.Occupancy.TutorialID)
}

func TestBookingSessionIgnoresOccupancyOfOtherTutorial(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()
	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)

	draft, _, err := f.store.Get(ctx, "mentee-1")
	require.NoError(t, err)
	// Calendar of another tutorial marking every date unavailable.
	draft.Occupancy = &models.MonthOccupancy{TutorialID: "tut-9", Month: "2024-06", Days: map[string]models.DayOccupancy{}}
	require.NoError(t, f.store.Save(ctx, draft))

	draft, err = f.svc.SelectDate(ctx, "mentee-1", models.SelectDateRequest{Date: "2024-06-03"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingSlotsReady, draft.State)
	assert.Len(t, draft.Slots, 2)
}

func TestBookingSessionClose(t *testing.T) {
	f := newSessionFixture(ticketNow)
	ctx := context.Background()

	assert.True(t, appErrors.Is(f.svc.Close(ctx, "mentee-1"), appErrors.ErrNotFound))

	_, err := f.svc.Open(ctx, "mentee-1", models.OpenBookingSessionRequest{TutorialID: "tut-1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Close(ctx, "mentee-1"))

	_, err = f.svc.Current(ctx, "mentee-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestMemoryDraftStoreExpires(t *testing.T) {
	store := NewMemoryDraftStore(time.Minute)
	now := ticketNow
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.BookingDraft{UserID: "u1", UpdatedAt: now}))
	_, ok, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDraftStoreSweep(t *testing.T) {
	store := NewMemoryDraftStore(time.Minute)
	now := ticketNow
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.BookingDraft{UserID: "u1", UpdatedAt: now}))
	require.NoError(t, store.Save(ctx, &models.BookingDraft{UserID: "u2", UpdatedAt: now.Add(90 * time.Second)}))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.NotContains(t, store.items, "u1")
	assert.Contains(t, store.items, "u2")
	assert.Zero(t, store.Sweep())
}

func TestMemoryDraftStoreSweeperStopsWithContext(t *testing.T) {
	store := NewMemoryDraftStore(time.Minute)
	require.NoError(t, store.Save(context.Background(), &models.BookingDraft{UserID: "u1", UpdatedAt: ticketNow}))

	ctx, cancel := context.WithCancel(context.Background())
	store.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		store.mu.RLock()
		defer store.mu.RUnlock()
		return len(store.items) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
}
