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

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	TransitionStatus(ctx context.Context, id string, from, to models.LessonStatus, rejectReason *string, restoreCredit bool, now time.Time) error
}

// LessonTransitionHook runs after a lesson changed status.
type LessonTransitionHook func(ctx context.Context, lesson *models.Lesson)

// LessonService lists lessons and drives their lifecycle on behalf of mentors.
type LessonService struct {
	repo      lessonRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	hooks     []LessonTransitionHook
	now       func() time.Time
}

// NewLessonService constructs the service.
func NewLessonService(repo lessonRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, validator: newValidator(validate), metrics: metrics, logger: logger, now: time.Now}
}

// OnTransition registers a hook fired after every successful status change.
func (s *LessonService) OnTransition(hook LessonTransitionHook) {
	if hook != nil {
		s.hooks = append(s.hooks, hook)
	}
}

// ListMine returns the mentee's lessons, optionally filtered by status.
func (s *LessonService) ListMine(ctx context.Context, menteeID string, status *models.LessonStatus) ([]models.Lesson, error) {
	return s.list(ctx, models.LessonFilter{MenteeID: menteeID, Status: status})
}

// ListForTicket returns the mentee's lessons drawn from one ticket.
func (s *LessonService) ListForTicket(ctx context.Context, menteeID, ticketID string, status *models.LessonStatus) ([]models.Lesson, error) {
	return s.list(ctx, models.LessonFilter{MenteeID: menteeID, TicketID: ticketID, Status: status})
}

// ListRequests returns lessons booked with the mentor, optionally filtered by status.
func (s *LessonService) ListRequests(ctx context.Context, mentorID string, status *models.LessonStatus) ([]models.Lesson, error) {
	return s.list(ctx, models.LessonFilter{MentorID: mentorID, Status: status})
}

func (s *LessonService) list(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown lesson status %q", *filter.Status))
	}
	lessons, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, nil
}

// Confirm accepts a requested lesson.
func (s *LessonService) Confirm(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error) {
	return s.transition(ctx, mentorID, lessonID, models.LessonConfirmed, nil)
}

// Reject declines a requested lesson and returns its credit to the ticket.
func (s *LessonService) Reject(ctx context.Context, mentorID, lessonID string, req models.RejectLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reject reason is required")
	}
	reason := req.Reason
	return s.transition(ctx, mentorID, lessonID, models.LessonRejected, &reason)
}

// Start marks a confirmed lesson as in progress.
func (s *LessonService) Start(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error) {
	return s.transition(ctx, mentorID, lessonID, models.LessonInProgress, nil)
}

// Complete finishes an in-progress lesson.
func (s *LessonService) Complete(ctx context.Context, mentorID, lessonID string) (*models.Lesson, error) {
	return s.transition(ctx, mentorID, lessonID, models.LessonCompleted, nil)
}

func (s *LessonService) transition(ctx context.Context, mentorID, lessonID string, to models.LessonStatus, reason *string) (*models.Lesson, error) {
	lesson, err := s.repo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.MentorID != mentorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lesson belongs to another mentor")
	}
	from := lesson.Status
	if !models.CanTransition(from, to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot move lesson from %s to %s", from, to))
	}

	now := s.now()
	restoreCredit := to == models.LessonRejected
	if err := s.repo.TransitionStatus(ctx, lessonID, from, to, reason, restoreCredit, now); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "lesson status changed, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}

	lesson.Status = to
	lesson.UpdatedAt = now.UTC()
	if reason != nil {
		lesson.RejectReason = reason
	}
	s.metrics.RecordLessonTransition(string(to))
	s.logger.Info("lesson status changed",
		zap.String("lesson_id", lessonID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	for _, hook := range s.hooks {
		hook(ctx, lesson)
	}
	return lesson, nil
}
