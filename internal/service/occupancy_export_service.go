package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
	"github.com/noah-isme/mentor-booking-api/pkg/export"
)

var occupancyExportHeaders = []string{"date", "weekday", "available", "total", "tier"}

type monthOccupancyComputer interface {
	ComputeMonthOccupancy(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error)
}

type datasetRenderer interface {
	Render(f export.Format, data export.Dataset) ([]byte, error)
}

// OccupancyExport is a rendered month report ready for download.
type OccupancyExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// OccupancyExportService renders month occupancy as a downloadable table.
type OccupancyExportService struct {
	occupancy monthOccupancyComputer
	renderer  datasetRenderer
	location  *time.Location
	logger    *zap.Logger
}

// NewOccupancyExportService constructs an OccupancyExportService.
func NewOccupancyExportService(occupancy monthOccupancyComputer, renderer datasetRenderer, location *time.Location, logger *zap.Logger) *OccupancyExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	if location == nil {
		location = time.UTC
	}
	return &OccupancyExportService{occupancy: occupancy, renderer: renderer, location: location, logger: logger}
}

// Export computes the occupancy of month ("YYYY-MM") and renders one row per queried date.
func (s *OccupancyExportService) Export(ctx context.Context, tutorialID, month, format string) (*OccupancyExport, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	start, err := models.ParseMonth(month, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month must be YYYY-MM")
	}

	occ, err := s.occupancy.ComputeMonthOccupancy(ctx, tutorialID, start)
	if err != nil {
		return nil, err
	}

	payload, err := s.renderer.Render(f, s.dataset(occ))
	if err != nil {
		s.logger.Error("render occupancy export", zap.String("tutorial_id", tutorialID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &OccupancyExport{
		Filename:    f.Filename(fmt.Sprintf("occupancy-%s-%s", tutorialID, occ.Month)),
		ContentType: f.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *OccupancyExportService) dataset(occ *models.MonthOccupancy) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Occupancy %s (tutorial %s)", occ.Month, occ.TutorialID),
		Headers: occupancyExportHeaders,
		Rows:    make([]map[string]string, 0, len(occ.QueriedDates)),
	}
	for _, date := range occ.QueriedDates {
		weekday := ""
		if d, err := models.ParseDate(date, s.location); err == nil {
			weekday = string(models.DayOfWeekFor(d.Weekday()))
		}
		row := map[string]string{"date": date, "weekday": weekday}
		switch {
		case occ.Failed(date):
			row["tier"] = "failed"
		default:
			day := occ.Days[date]
			row["available"] = strconv.Itoa(day.AvailableCount)
			row["total"] = strconv.Itoa(day.TotalCount)
			row["tier"] = string(occ.TierFor(date))
		}
		data.Rows = append(data.Rows, row)
	}
	if len(occ.FailedDates) > 0 {
		data.Notes = append(data.Notes, fmt.Sprintf("%d date(s) could not be loaded", len(occ.FailedDates)))
	}
	return data
}
