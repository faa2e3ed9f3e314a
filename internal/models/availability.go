package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayOfWeek names a weekday the way mentors configure their availability.
type DayOfWeek string

const (
	Sunday    DayOfWeek = "SUNDAY"
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

var weekdays = [...]DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayOfWeekFor maps a time.Weekday onto DayOfWeek.
func DayOfWeekFor(w time.Weekday) DayOfWeek {
	return weekdays[int(w)%7]
}

// Weekday converts back to time.Weekday. ok is false for unknown values.
func (d DayOfWeek) Weekday() (time.Weekday, bool) {
	for i, day := range weekdays {
		if day == d {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// Valid reports whether d is a known weekday.
func (d DayOfWeek) Valid() bool {
	_, ok := d.Weekday()
	return ok
}

// TimeOfDay is a wall-clock time with minute resolution, stored as minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS". Seconds are discarded.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	limits := []int{23, 59, 59}
	values := make([]int, len(parts))
	for i, part := range parts {
		if len(part) == 0 || len(part) > 2 {
			return 0, fmt.Errorf("invalid time of day %q", raw)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", raw)
		}
		values[i] = n
	}
	return TimeOfDay(values[0]*60 + values[1]), nil
}

// MustTimeOfDay parses raw and panics on error. Intended for constants and tests.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Minutes returns the minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return int(t)
}

// Add shifts the time by d, truncated to whole minutes. The result may exceed one day.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// String renders "HH:MM".
func (t TimeOfDay) String() string {
	m := int(t)
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// On returns the instant at which t occurs on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, int(t)/60, int(t)%60, 0, 0, loc)
}

// TimeOfDayOf extracts the wall-clock time of ts in loc.
func TimeOfDayOf(ts time.Time, loc *time.Location) TimeOfDay {
	local := ts.In(loc)
	return TimeOfDay(local.Hour()*60 + local.Minute())
}

// MarshalJSON renders the time as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value persists the time as a Postgres TIME literal.
func (t TimeOfDay) Value() (driver.Value, error) {
	if t < 0 || t >= minutesPerDay {
		return nil, fmt.Errorf("time of day out of range: %d", int(t))
	}
	return t.String() + ":00", nil
}

// Scan reads TIME columns returned as text or time.Time.
func (t *TimeOfDay) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = 0
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
		return nil
	default:
		return fmt.Errorf("unsupported time of day type %T", value)
	}
}

func (t *TimeOfDay) scanString(raw string) error {
	// Postgres may append fractional seconds or a zone offset.
	if idx := strings.IndexAny(raw, ".+-"); idx > 0 {
		raw = raw[:idx]
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AvailabilityWindow is a recurring weekly interval during which a mentor accepts lessons.
type AvailabilityWindow struct {
	ID        string    `db:"id" json:"id"`
	MentorID  string    `db:"mentor_id" json:"mentor_id"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay `db:"end_time" json:"end_time"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether two windows on the same weekday share any minute.
func (w AvailabilityWindow) Overlaps(other AvailabilityWindow) bool {
	if w.DayOfWeek != other.DayOfWeek {
		return false
	}
	return w.StartTime < other.EndTime && other.StartTime < w.EndTime
}

// AddAvailabilityRequest registers a new weekly window for the authenticated mentor.
type AddAvailabilityRequest struct {
	DayOfWeek DayOfWeek `json:"day_of_week" validate:"required,dayofweek"`
	StartTime string    `json:"start_time" validate:"required,timeofday"`
	EndTime   string    `json:"end_time" validate:"required,timeofday"`
}

// MentorAvailability groups a mentor's windows for public display.
type MentorAvailability struct {
	MentorID string               `json:"mentor_id"`
	Windows  []AvailabilityWindow `json:"windows"`
}
