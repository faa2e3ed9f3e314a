package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

const defaultOccupancyBatchSize = 5

type slotSource interface {
	ActiveWindowsForTutorial(ctx context.Context, tutorialID string) ([]models.AvailabilityWindow, error)
	GenerateSlots(ctx context.Context, tutorialID string, date time.Time) (*models.AvailableSlots, error)
}

// OccupancyConfig bounds month aggregation.
type OccupancyConfig struct {
	BatchSize int
	Location  *time.Location
}

// OccupancyService aggregates per-day slot counts into calendar tiers for a month.
type OccupancyService struct {
	slots   slotSource
	metrics *MetricsService
	logger  *zap.Logger
	cfg     OccupancyConfig
	now     func() time.Time
}

// NewOccupancyService constructs the aggregator.
func NewOccupancyService(slots slotSource, metrics *MetricsService, logger *zap.Logger, cfg OccupancyConfig) *OccupancyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultOccupancyBatchSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &OccupancyService{slots: slots, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// QueryDates lists the dates of month that fall on an available weekday and are not before today.
func (s *OccupancyService) QueryDates(month time.Time, windows []models.AvailabilityWindow) []time.Time {
	loc := s.cfg.Location
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	ny, nm, nd := s.now().In(loc).Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, loc)

	available := make(map[models.DayOfWeek]bool, 7)
	for _, w := range windows {
		if w.Active {
			available[w.DayOfWeek] = true
		}
	}

	var dates []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if d.Before(today) {
			continue
		}
		if available[models.DayOfWeekFor(d.Weekday())] {
			dates = append(dates, d)
		}
	}
	return dates
}

// ComputeMonthOccupancy queries slots for every eligible date of month in sequential batches
// and classifies each day. A failing date is recorded in FailedDates and never aborts the month.
func (s *OccupancyService) ComputeMonthOccupancy(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
	windows, err := s.slots.ActiveWindowsForTutorial(ctx, tutorialID)
	if err != nil {
		return nil, err
	}

	dates := s.QueryDates(month, windows)
	result := &models.MonthOccupancy{
		TutorialID:   tutorialID,
		Month:        month.In(s.cfg.Location).Format(models.MonthLayout),
		Days:         make(map[string]models.DayOccupancy, len(dates)),
		QueriedDates: make([]string, 0, len(dates)),
	}
	for _, d := range dates {
		result.QueriedDates = append(result.QueriedDates, d.Format(models.DateLayout))
	}

	var mu sync.Mutex
	for start := 0; start < len(dates); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrSlotsUnavailable.Code, appErrors.ErrSlotsUnavailable.Status, "occupancy computation cancelled")
		}
		end := start + s.cfg.BatchSize
		if end > len(dates) {
			end = len(dates)
		}

		// Per-date failures land in FailedDates and never fail the group, so
		// a bad day cannot cancel its siblings through a shared context.
		var g errgroup.Group
		g.SetLimit(s.cfg.BatchSize)
		for _, date := range dates[start:end] {
			date := date
			g.Go(func() error {
				s.metrics.SlotQueryStarted()
				defer s.metrics.SlotQueryFinished()

				key := date.Format(models.DateLayout)
				slots, err := s.slots.GenerateSlots(ctx, tutorialID, date)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.FailedDates = append(result.FailedDates, key)
					s.metrics.RecordOccupancyFailure()
					s.logger.Warn("occupancy date failed",
						zap.String("tutorial_id", tutorialID),
						zap.String("date", key),
						zap.Error(err),
					)
					return nil
				}
				available, total := slots.AvailableCount(), len(slots.Slots)
				if tier, ok := models.TierForCounts(available, total); ok {
					result.Days[key] = models.DayOccupancy{
						Date:           key,
						AvailableCount: available,
						TotalCount:     total,
						Tier:           tier,
					}
				}
				return nil
			})
		}
		_ = g.Wait() // closures only return nil
	}
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSlotsUnavailable.Code, appErrors.ErrSlotsUnavailable.Status, "occupancy computation cancelled")
	}

	sort.Strings(result.FailedDates)
	s.logger.Debug("occupancy computed",
		zap.String("tutorial_id", tutorialID),
		zap.String("month", result.Month),
		zap.Int("queried", len(result.QueriedDates)),
		zap.Int("failed", len(result.FailedDates)),
	)
	return result, nil
}
