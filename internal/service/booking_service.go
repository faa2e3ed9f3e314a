package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	"github.com/noah-isme/mentor-booking-api/internal/repository"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type ownedTicketReader interface {
	GetOwned(ctx context.Context, menteeID, ticketID string) (*models.Ticket, error)
}

type slotGenerator interface {
	Tutorial(ctx context.Context, tutorialID string) (*models.Tutorial, error)
	GenerateSlots(ctx context.Context, tutorialID string, date time.Time) (*models.AvailableSlots, error)
	Location() *time.Location
}

type lessonBooker interface {
	CountOutstanding(ctx context.Context, ticketID string) (int, error)
	CreateBooking(ctx context.Context, lesson *models.Lesson, now time.Time) error
}

// BookingHook runs after a lesson has been booked.
type BookingHook func(ctx context.Context, lesson *models.Lesson)

// BookingService creates lesson bookings against a mentee's ticket.
type BookingService struct {
	tickets   ownedTicketReader
	slots     slotGenerator
	lessons   lessonBooker
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	hooks     []BookingHook
	now       func() time.Time
}

// NewBookingService constructs the booking endpoint service.
func NewBookingService(tickets ownedTicketReader, slots slotGenerator, lessons lessonBooker, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		tickets:   tickets,
		slots:     slots,
		lessons:   lessons,
		validator: newValidator(validate),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// OnBooked registers a hook fired after every successful booking.
func (s *BookingService) OnBooked(hook BookingHook) {
	if hook != nil {
		s.hooks = append(s.hooks, hook)
	}
}

// CreateLessonBooking books the slot at req's date and time using ticketID. The slot is
// regenerated from current data and must still be available, and the ticket may not
// already carry a requested or confirmed lesson.
func (s *BookingService) CreateLessonBooking(ctx context.Context, menteeID, ticketID string, req models.CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	loc := s.slots.Location()
	date, err := models.ParseDate(req.LessonDate, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	at, err := models.ParseTimeOfDay(req.LessonTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	ticket, err := s.tickets.GetOwned(ctx, menteeID, ticketID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !ticket.Usable(now) {
		s.metrics.RecordBooking("ticket_exhausted")
		return nil, appErrors.Clone(appErrors.ErrTicketExhausted, "ticket has no remaining lessons or has expired")
	}
	// Same one-pending-lesson rule the session gate applies.
	outstanding, err := s.lessons.CountOutstanding(ctx, ticket.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check outstanding lessons")
	}
	if outstanding > 0 {
		s.metrics.RecordBooking("outstanding_lesson")
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "a lesson on this ticket is still pending or confirmed").
			WithMeta("redirect", models.RedirectOutstandingLesson)
	}

	tutorial, err := s.slots.Tutorial(ctx, ticket.TutorialID)
	if err != nil {
		return nil, err
	}
	available, err := s.slots.GenerateSlots(ctx, ticket.TutorialID, date)
	if err != nil {
		s.metrics.RecordBooking("error")
		return nil, err
	}
	slot, ok := available.Find(at)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s %s is not a bookable slot", req.LessonDate, at))
	}
	if !slot.Available {
		s.metrics.RecordBooking("slot_taken")
		return nil, appErrors.Clone(appErrors.ErrSlotTaken, fmt.Sprintf("slot %s %s is %s", req.LessonDate, at, slot.Reason))
	}

	lesson := &models.Lesson{
		TicketID:      ticket.ID,
		TutorialID:    ticket.TutorialID,
		TutorialTitle: tutorial.Title,
		MentorID:      tutorial.MentorID,
		MenteeID:      menteeID,
		ScheduledAt:   slot.StartsAt.UTC(),
	}
	if req.RequestMessage != "" {
		msg := req.RequestMessage
		lesson.RequestMessage = &msg
	}

	if err := s.lessons.CreateBooking(ctx, lesson, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			s.metrics.RecordBooking("slot_taken")
			return nil, appErrors.Clone(appErrors.ErrSlotTaken, "slot was booked by someone else")
		case errors.Is(err, repository.ErrTicketExhausted):
			s.metrics.RecordBooking("ticket_exhausted")
			return nil, appErrors.Clone(appErrors.ErrTicketExhausted, "ticket has no remaining lessons or has expired")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
		}
		s.metrics.RecordBooking("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson booking")
	}

	s.metrics.RecordBooking("created")
	s.logger.Info("lesson booked",
		zap.String("lesson_id", lesson.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("mentor_id", lesson.MentorID),
		zap.Time("scheduled_at", lesson.ScheduledAt),
	)
	for _, hook := range s.hooks {
		hook(ctx, lesson)
	}
	return lesson, nil
}
