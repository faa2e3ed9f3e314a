package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type tutorialReader interface {
	FindByID(ctx context.Context, id string) (*models.Tutorial, error)
}

type activeWindowLister interface {
	ListActiveWindows(ctx context.Context, mentorID string) ([]models.AvailabilityWindow, error)
}

type occupyingLessonLister interface {
	ListOccupying(ctx context.Context, mentorID string, from, to time.Time) ([]models.Lesson, error)
}

// SlotConfig governs slot generation.
type SlotConfig struct {
	Location     *time.Location
	LeadTime     time.Duration
	FetchTimeout time.Duration
	TutorialTTL  time.Duration
}

// SlotService turns availability windows into concrete bookable slots for one date.
type SlotService struct {
	tutorials tutorialReader
	windows   activeWindowLister
	lessons   occupyingLessonLister
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       SlotConfig
	now       func() time.Time
}

// NewSlotService wires the slot generator.
func NewSlotService(tutorials tutorialReader, windows activeWindowLister, lessons occupyingLessonLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg SlotConfig) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LeadTime < 0 {
		cfg.LeadTime = 0
	}
	return &SlotService{
		tutorials: tutorials,
		windows:   windows,
		lessons:   lessons,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Location returns the timezone dates are interpreted in.
func (s *SlotService) Location() *time.Location {
	return s.cfg.Location
}

// Tutorial returns a tutorial through the read-through cache.
func (s *SlotService) Tutorial(ctx context.Context, tutorialID string) (*models.Tutorial, error) {
	tutorial, _, err := s.CachedTutorial(ctx, tutorialID)
	return tutorial, err
}

// CachedTutorial is Tutorial that also reports whether the cache served the lookup.
func (s *SlotService) CachedTutorial(ctx context.Context, tutorialID string) (*models.Tutorial, bool, error) {
	key := tutorialCacheKey(tutorialID)
	var cached models.Tutorial
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	tutorial, err := s.tutorials.FindByID(ctx, tutorialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "tutorial not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrSlotsUnavailable.Code, appErrors.ErrSlotsUnavailable.Status, "failed to load tutorial")
	}
	_ = s.cache.Set(ctx, key, tutorial, s.cfg.TutorialTTL)
	return tutorial, false, nil
}

// ActiveWindowsForTutorial resolves the tutorial's mentor and returns their active windows.
func (s *SlotService) ActiveWindowsForTutorial(ctx context.Context, tutorialID string) ([]models.AvailabilityWindow, error) {
	tutorial, err := s.Tutorial(ctx, tutorialID)
	if err != nil {
		return nil, err
	}
	windows, err := s.windows.ListActiveWindows(ctx, tutorial.MentorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSlotsUnavailable.Code, appErrors.ErrSlotsUnavailable.Status, "failed to load availability")
	}
	return windows, nil
}

// GenerateSlots lists candidate start times for the tutorial on the calendar date of date.
// A date with no matching window yields an empty list. Fetch failures are returned as
// errors and never as a defaulted slot list.
func (s *SlotService) GenerateSlots(ctx context.Context, tutorialID string, date time.Time) (result *models.AvailableSlots, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSlotGeneration(err, time.Since(start)) }()

	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	loc := s.cfg.Location
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	weekday := models.DayOfWeekFor(day.Weekday())

	tutorial, cached, err := s.CachedTutorial(ctx, tutorialID)
	if err != nil {
		return nil, err
	}
	if tutorial.DurationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrSlotsUnavailable, "tutorial has no lesson duration")
	}

	result = &models.AvailableSlots{
		TutorialID: tutorialID,
		Date:       day.Format(models.DateLayout),
		DayOfWeek:  weekday,
		Duration:   tutorial.DurationMinutes,
		Slots:      []models.CandidateSlot{},

		TutorialCached: cached,
	}

	windows, err := s.windows.ListActiveWindows(ctx, tutorial.MentorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSlotsUnavailable.Code, appErrors.ErrSlotsUnavailable.Status, "failed to load availability")
	}
	matching := windowsForDay(windows, weekday)
	if len(matching) == 0 {
		return result, nil
	}

	lessons, err := s.lessons.ListOccupying(ctx, tutorial.MentorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Warn("slot generation failed to load bookings",
			zap.String("tutorial_id", tutorialID),
			zap.String("date", result.Date),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrSlotsUnavailable.Code, appErrors.ErrSlotsUnavailable.Status, "failed to load existing bookings")
	}

	booked := make(map[int64]struct{}, len(lessons))
	for _, lesson := range lessons {
		if lesson.Status.Occupying() {
			booked[lesson.ScheduledAt.Unix()] = struct{}{}
		}
	}

	cutoff := s.now().Add(s.cfg.LeadTime)
	result.Slots = partitionWindows(matching, day, loc, tutorial.Duration(), booked, cutoff)
	return result, nil
}

func windowsForDay(windows []models.AvailabilityWindow, day models.DayOfWeek) []models.AvailabilityWindow {
	var out []models.AvailabilityWindow
	for _, w := range windows {
		if w.Active && w.DayOfWeek == day && w.StartTime < w.EndTime {
			out = append(out, w)
		}
	}
	return out
}

// partitionWindows steps through each window by duration without emitting a partial
// trailing slot. Start times shared by several windows collapse into one slot.
func partitionWindows(windows []models.AvailabilityWindow, day time.Time, loc *time.Location, duration time.Duration, booked map[int64]struct{}, cutoff time.Time) []models.CandidateSlot {
	seen := make(map[models.TimeOfDay]struct{})
	slots := make([]models.CandidateSlot, 0)
	for _, w := range windows {
		for t := w.StartTime; t.Add(duration) <= w.EndTime; t = t.Add(duration) {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}

			startsAt := t.On(day, loc)
			slot := models.CandidateSlot{Time: t, Available: true, StartsAt: startsAt}
			if _, taken := booked[startsAt.Unix()]; taken {
				slot.Available = false
				slot.Reason = models.SlotReasonBooked
			} else if !startsAt.After(cutoff) {
				slot.Available = false
				slot.Reason = models.SlotReasonPast
			}
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	return slots
}
