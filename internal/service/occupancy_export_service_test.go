package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

func juneOccupancy() *models.MonthOccupancy {
	return &models.MonthOccupancy{
		TutorialID:   "tut-1",
		Month:        "2024-06",
		QueriedDates: []string{"2024-06-03", "2024-06-10", "2024-06-17"},
		Days: map[string]models.DayOccupancy{
			"2024-06-03": {Date: "2024-06-03", AvailableCount: 2, TotalCount: 2, Tier: models.TierSmooth},
		},
		FailedDates: []string{"2024-06-17"},
	}
}

func TestOccupancyExportCSV(t *testing.T) {
	var gotMonth time.Time
	src := funcOccupancySource(func(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
		gotMonth = month
		return juneOccupancy(), nil
	})
	svc := NewOccupancyExportService(src, nil, kst, nil)

	out, err := svc.Export(context.Background(), "tut-1", "2024-06", "csv")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, kst), gotMonth)
	assert.Equal(t, "occupancy-tut-1-2024-06.csv", out.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)

	lines := strings.Split(strings.TrimSpace(string(out.Payload)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "date,weekday,available,total,tier", lines[0])
	assert.Equal(t, "2024-06-03,MONDAY,2,2,smooth", lines[1])
	assert.Equal(t, "2024-06-10,MONDAY,0,0,unavailable", lines[2])
	assert.Equal(t, "2024-06-17,MONDAY,,,failed", lines[3])
	assert.Equal(t, "# 1 date(s) could not be loaded", lines[4])
}

func TestOccupancyExportPDF(t *testing.T) {
	src := funcOccupancySource(func(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
		return juneOccupancy(), nil
	})
	out, err := NewOccupancyExportService(src, nil, kst, nil).Export(context.Background(), "tut-1", "2024-06", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, strings.HasPrefix(string(out.Payload), "%PDF"))
}

func TestOccupancyExportValidation(t *testing.T) {
	called := false
	src := funcOccupancySource(func(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
		called = true
		return juneOccupancy(), nil
	})
	svc := NewOccupancyExportService(src, nil, kst, nil)

	_, err := svc.Export(context.Background(), "tut-1", "June", "csv")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export(context.Background(), "tut-1", "2024-06", "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.False(t, called)
}

func TestOccupancyExportPropagatesErrors(t *testing.T) {
	src := funcOccupancySource(func(ctx context.Context, tutorialID string, month time.Time) (*models.MonthOccupancy, error) {
		return nil, appErrors.Clone(appErrors.ErrSlotsUnavailable, "windows unavailable")
	})
	_, err := NewOccupancyExportService(src, nil, kst, nil).Export(context.Background(), "tut-1", "2024-06", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrSlotsUnavailable))
}
