package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type availabilityRepository interface {
	ListByMentor(ctx context.Context, mentorID string, activeOnly bool) ([]models.AvailabilityWindow, error)
	GetByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	Delete(ctx context.Context, id string) error
}

// AvailabilityConfig holds editing policy for mentor windows.
type AvailabilityConfig struct {
	// SingleWindowPerDay rejects a second window on an already configured weekday.
	SingleWindowPerDay bool
}

// AvailabilityService is the registry of mentors' recurring weekly windows.
type AvailabilityService struct {
	repo      availabilityRepository
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AvailabilityConfig
}

// NewAvailabilityService constructs the registry.
func NewAvailabilityService(repo availabilityRepository, validate *validator.Validate, logger *zap.Logger, cfg AvailabilityConfig) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, validator: newValidator(validate), logger: logger, cfg: cfg}
}

// ListActiveWindows returns the mentor's active windows. Reads always hit storage.
func (s *AvailabilityService) ListActiveWindows(ctx context.Context, mentorID string) ([]models.AvailabilityWindow, error) {
	windows, err := s.repo.ListByMentor(ctx, mentorID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	active := make([]models.AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		if w.Active {
			active = append(active, w)
		}
	}
	return active, nil
}

// PublicAvailability returns the active windows shown on a mentor's profile.
func (s *AvailabilityService) PublicAvailability(ctx context.Context, mentorID string) (*models.MentorAvailability, error) {
	windows, err := s.ListActiveWindows(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	return &models.MentorAvailability{MentorID: mentorID, Windows: windows}, nil
}

// List returns every window the mentor has configured, including inactive ones.
func (s *AvailabilityService) List(ctx context.Context, mentorID string) (*models.MentorAvailability, error) {
	windows, err := s.repo.ListByMentor(ctx, mentorID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if windows == nil {
		windows = []models.AvailabilityWindow{}
	}
	return &models.MentorAvailability{MentorID: mentorID, Windows: windows}, nil
}

// Add validates and stores a new active window for the mentor.
func (s *AvailabilityService) Add(ctx context.Context, mentorID string, req models.AddAvailabilityRequest) (*models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	start, _ := models.ParseTimeOfDay(req.StartTime)
	end, _ := models.ParseTimeOfDay(req.EndTime)
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	candidate := models.AvailabilityWindow{
		MentorID:  mentorID,
		DayOfWeek: req.DayOfWeek,
		StartTime: start,
		EndTime:   end,
		Active:    true,
	}

	existing, err := s.repo.ListByMentor(ctx, mentorID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	for _, w := range existing {
		if s.cfg.SingleWindowPerDay && w.DayOfWeek == candidate.DayOfWeek {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("availability already configured for %s", candidate.DayOfWeek))
		}
		if w.Overlaps(candidate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("window overlaps %s %s-%s", w.DayOfWeek, w.StartTime, w.EndTime))
		}
	}

	if err := s.repo.Create(ctx, &candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability")
	}
	s.logger.Info("availability window added",
		zap.String("mentor_id", mentorID),
		zap.String("day_of_week", string(candidate.DayOfWeek)),
		zap.String("start_time", candidate.StartTime.String()),
		zap.String("end_time", candidate.EndTime.String()),
	)
	return &candidate, nil
}

// Delete removes one of the mentor's windows.
func (s *AvailabilityService) Delete(ctx context.Context, mentorID, windowID string) error {
	window, err := s.repo.GetByID(ctx, windowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability window")
	}
	if window.MentorID != mentorID {
		return appErrors.Clone(appErrors.ErrForbidden, "availability window belongs to another mentor")
	}
	if err := s.repo.Delete(ctx, windowID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability window")
	}
	s.logger.Info("availability window deleted", zap.String("mentor_id", mentorID), zap.String("window_id", windowID))
	return nil
}
