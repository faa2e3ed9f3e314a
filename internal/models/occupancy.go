package models

import (
	"fmt"
	"time"
)

// MonthLayout is the wire format of calendar months.
const MonthLayout = "2006-01"

// OccupancyTier summarises how full a day is.
type OccupancyTier string

const (
	TierSmooth      OccupancyTier = "smooth"
	TierSlight      OccupancyTier = "slight"
	TierBusy        OccupancyTier = "busy"
	TierFull        OccupancyTier = "full"
	TierUnavailable OccupancyTier = "unavailable"
)

// TierForCounts classifies a day from its slot counts. ok is false when the day has no slots.
func TierForCounts(available, total int) (OccupancyTier, bool) {
	if total <= 0 {
		return "", false
	}
	if available <= 0 {
		return TierFull, true
	}
	ratio := float64(available) / float64(total)
	switch {
	case ratio >= 0.5:
		return TierSmooth, true
	case ratio >= 0.3:
		return TierSlight, true
	default:
		return TierBusy, true
	}
}

// DayOccupancy is the occupancy signal for one date.
type DayOccupancy struct {
	Date           string        `json:"date"`
	AvailableCount int           `json:"available_count"`
	TotalCount     int           `json:"total_count"`
	Tier           OccupancyTier `json:"tier"`
}

// MonthOccupancy is a sparse map of day signals for one tutorial and month.
// Dates missing from Days are unavailable unless listed in FailedDates.
type MonthOccupancy struct {
	TutorialID   string                  `json:"tutorial_id"`
	Month        string                  `json:"month"`
	Days         map[string]DayOccupancy `json:"days"`
	QueriedDates []string                `json:"queried_dates"`
	FailedDates  []string                `json:"failed_dates,omitempty"`
}

// TierFor returns the tier for date, defaulting to unavailable.
func (m *MonthOccupancy) TierFor(date string) OccupancyTier {
	if m == nil {
		return TierUnavailable
	}
	if day, ok := m.Days[date]; ok {
		return day.Tier
	}
	return TierUnavailable
}

// Failed reports whether the slot query for date failed.
func (m *MonthOccupancy) Failed(date string) bool {
	if m == nil {
		return false
	}
	for _, d := range m.FailedDates {
		if d == date {
			return true
		}
	}
	return false
}

// Selectable reports whether a calendar click on date may proceed. A failed date has
// no signal and stays selectable so the user can retry.
func (m *MonthOccupancy) Selectable(date string) bool {
	if m.Failed(date) {
		return true
	}
	tier := m.TierFor(date)
	return tier != TierFull && tier != TierUnavailable
}

// OrderedDays returns the day signals sorted by date.
func (m *MonthOccupancy) OrderedDays() []DayOccupancy {
	if m == nil {
		return nil
	}
	out := make([]DayOccupancy, 0, len(m.Days))
	for _, date := range m.QueriedDates {
		if day, ok := m.Days[date]; ok {
			out = append(out, day)
		}
	}
	return out
}

// ParseMonth parses "YYYY-MM" into the first day of that month in loc.
func ParseMonth(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q", raw)
	}
	return t, nil
}

// ParseDate parses "YYYY-MM-DD" as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}
