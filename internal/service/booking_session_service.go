package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

// Lists the client should reload after a successful booking.
var bookingRefreshTargets = []string{"tickets", "lessons"}

type eligibilityGate interface {
	RequireEligible(ctx context.Context, menteeID, tutorialID string) (*models.BookingEligibility, error)
}

type monthOccupancySource interface {
	ComputeMonthOccupancy(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error)
}

type lessonBookingCreator interface {
	CreateLessonBooking(ctx context.Context, menteeID, ticketID string, req models.CreateLessonRequest) (*models.Lesson, error)
}

// CalendarView is the occupancy for a month as seen by one booking session.
type CalendarView struct {
	Occupancy *models.MonthOccupancy `json:"occupancy"`
	Days      []models.DayOccupancy  `json:"days"`
	// Stale is set when the session moved to another month while this one was computed.
	Stale bool `json:"stale"`
}

const sessionLockStripes = 64

// BookingSessionService drives the per-mentee booking selector and stores its draft.
type BookingSessionService struct {
	gate      eligibilityGate
	slots     slotGenerator
	occupancy monthOccupancySource
	bookings  lessonBookingCreator
	store     DraftStore
	validator *validator.Validate
	logger    *zap.Logger
	machine   bookingMachine
	locks     [sessionLockStripes]sync.Mutex
	now       func() time.Time
}

// NewBookingSessionService wires the booking selector.
func NewBookingSessionService(gate eligibilityGate, slots slotGenerator, occupancy monthOccupancySource, bookings lessonBookingCreator, store DraftStore, validate *validator.Validate, logger *zap.Logger) *BookingSessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryDraftStore(0)
	}
	s := &BookingSessionService{
		gate:      gate,
		slots:     slots,
		occupancy: occupancy,
		bookings:  bookings,
		store:     store,
		validator: newValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
	s.machine = bookingMachine{now: func() time.Time { return s.now() }}
	return s
}

func (s *BookingSessionService) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	mu := &s.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *BookingSessionService) load(ctx context.Context, userID string) (*models.BookingDraft, error) {
	draft, ok, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking session")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no open booking session")
	}
	return draft, nil
}

func (s *BookingSessionService) save(ctx context.Context, draft *models.BookingDraft) error {
	if err := s.store.Save(ctx, draft); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save booking session")
	}
	return nil
}

// Open runs the ticket gate and starts a fresh draft, replacing any draft the user had.
// A preselected date goes straight to slot loading.
func (s *BookingSessionService) Open(ctx context.Context, userID string, req models.OpenBookingSessionRequest) (*models.BookingDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking session payload")
	}
	eligibility, err := s.gate.RequireEligible(ctx, userID, req.TutorialID)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	draft := s.machine.open(userID, req.TutorialID, eligibility.TicketID)
	if req.Date != "" {
		if err := s.loadSlots(ctx, draft, req.Date); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	s.logger.Info("booking session opened",
		zap.String("user_id", userID),
		zap.String("tutorial_id", req.TutorialID),
		zap.String("ticket_id", eligibility.TicketID),
	)
	return draft, nil
}

// Current returns the user's open draft.
func (s *BookingSessionService) Current(ctx context.Context, userID string) (*models.BookingDraft, error) {
	return s.load(ctx, userID)
}

// SelectDate picks a date and loads its slots. A slot fetch failure is recorded on the
// draft rather than returned.
func (s *BookingSessionService) SelectDate(ctx context.Context, userID string, req models.SelectDateRequest) (*models.BookingDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	unlock := s.lock(userID)
	defer unlock()

	draft, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.loadSlots(ctx, draft, req.Date); err != nil {
		return nil, err
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *BookingSessionService) loadSlots(ctx context.Context, draft *models.BookingDraft, rawDate string) error {
	loc := s.slots.Location()
	date, err := models.ParseDate(rawDate, loc)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	y, m, d := s.now().In(loc).Date()
	if date.Before(time.Date(y, m, d, 0, 0, 0, 0, loc)) {
		return appErrors.Clone(appErrors.ErrValidation, "date is in the past")
	}
	if occ := draft.Occupancy; occ != nil && occ.TutorialID == draft.TutorialID &&
		occ.Month == date.Format(models.MonthLayout) && !occ.Selectable(rawDate) {
		return appErrors.Clone(appErrors.ErrValidation, "date has no bookable slots")
	}

	if err := s.machine.beginLoading(draft, rawDate); err != nil {
		return err
	}
	slots, err := s.slots.GenerateSlots(ctx, draft.TutorialID, date)
	if err != nil {
		s.logger.Warn("booking session slot load failed",
			zap.String("user_id", draft.UserID),
			zap.String("date", rawDate),
			zap.Error(err),
		)
		s.machine.slotsFailed(draft, err)
		return nil
	}
	s.machine.slotsLoaded(draft, slots.Slots)
	return nil
}

// SelectTime picks one of the loaded slots.
func (s *BookingSessionService) SelectTime(ctx context.Context, userID string, req models.SelectTimeRequest) (*models.BookingDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time")
	}
	at, _ := models.ParseTimeOfDay(req.Time)

	unlock := s.lock(userID)
	defer unlock()

	draft, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.selectTime(draft, at); err != nil {
		return nil, err
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// UpdateMessage edits the note sent with the booking.
func (s *BookingSessionService) UpdateMessage(ctx context.Context, userID string, req models.UpdateMessageRequest) (*models.BookingDraft, error) {
	unlock := s.lock(userID)
	defer unlock()

	draft, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.updateMessage(draft, req.Message); err != nil {
		return nil, err
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Calendar computes occupancy for month. The result is stored on the draft only when the
// draft still shows that month once the computation finishes.
func (s *BookingSessionService) Calendar(ctx context.Context, userID string, month time.Time) (*CalendarView, error) {
	key := month.Format(models.MonthLayout)

	unlock := s.lock(userID)
	draft, err := s.load(ctx, userID)
	if err == nil {
		draft.VisibleMonth = key
		err = s.save(ctx, draft)
	}
	unlock()
	if err != nil {
		return nil, err
	}
	tutorialID, openedAt := draft.TutorialID, draft.OpenedAt

	occupancy, err := s.occupancy.ComputeMonthOccupancy(ctx, tutorialID, month)
	if err != nil {
		return nil, err
	}
	view := &CalendarView{Occupancy: occupancy, Days: occupancy.OrderedDays()}

	unlock = s.lock(userID)
	defer unlock()
	latest, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	// A reopened draft is a different session even when it shows the same month.
	if latest.VisibleMonth != key || latest.TutorialID != tutorialID || !latest.OpenedAt.Equal(openedAt) {
		s.logger.Debug("discarding stale occupancy",
			zap.String("user_id", userID),
			zap.String("requested", key),
			zap.String("visible", latest.VisibleMonth),
			zap.String("tutorial_id", tutorialID),
		)
		view.Stale = true
		return view, nil
	}
	latest.Occupancy = occupancy
	if err := s.save(ctx, latest); err != nil {
		return nil, err
	}
	return view, nil
}

// Submit books the selected slot. On success the draft is discarded; on rejection the draft
// returns to slot selection with the error and nothing is retried.
func (s *BookingSessionService) Submit(ctx context.Context, userID string) (*models.BookingResult, error) {
	unlock := s.lock(userID)
	defer unlock()

	draft, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.beginSubmit(draft); err != nil {
		return nil, err
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	lesson, bookErr := s.bookings.CreateLessonBooking(ctx, userID, draft.TicketID, models.CreateLessonRequest{
		LessonDate:     draft.SelectedDate,
		LessonTime:     draft.SelectedTime.String(),
		RequestMessage: draft.Message,
	})
	if bookErr != nil {
		s.machine.submitFailed(draft, bookErr)
		if err := s.save(ctx, draft); err != nil {
			// A draft left in SUBMITTING would refuse every later step.
			s.logger.Error("failed to save rejected booking session, discarding it", zap.String("user_id", userID), zap.Error(err))
			if err := s.store.Delete(ctx, userID); err != nil {
				s.logger.Error("failed to discard rejected booking session", zap.String("user_id", userID), zap.Error(err))
			}
		}
		return nil, bookErr
	}

	s.machine.submitSucceeded(draft, lesson)
	if err := s.store.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to discard booking session", zap.String("user_id", userID), zap.Error(err))
	}
	return &models.BookingResult{Lesson: lesson, Refresh: append([]string(nil), bookingRefreshTargets...)}, nil
}

// Close discards the user's draft.
func (s *BookingSessionService) Close(ctx context.Context, userID string) error {
	unlock := s.lock(userID)
	defer unlock()

	draft, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	s.machine.close(draft)
	if err := s.store.Delete(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close booking session")
	}
	return nil
}
