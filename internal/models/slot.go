package models

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Reasons a candidate slot is not bookable.
const (
	SlotReasonBooked = "already booked"
	SlotReasonPast   = "past"
)

// CandidateSlot is one start time produced by partitioning availability windows.
type CandidateSlot struct {
	Time      TimeOfDay `json:"time"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
	StartsAt  time.Time `json:"-"`
}

// AvailableSlots is the slot listing for one tutorial on one date.
type AvailableSlots struct {
	TutorialID string          `json:"tutorial_id"`
	Date       string          `json:"date"`
	DayOfWeek  DayOfWeek       `json:"day_of_week"`
	Duration   int             `json:"duration"`
	Slots      []CandidateSlot `json:"slots"`

	// TutorialCached reports that the tutorial came from the read-through cache.
	TutorialCached bool `json:"-"`
}

// AvailableCount returns how many slots can still be booked.
func (a *AvailableSlots) AvailableCount() int {
	if a == nil {
		return 0
	}
	count := 0
	for _, s := range a.Slots {
		if s.Available {
			count++
		}
	}
	return count
}

// Find returns the slot starting at t.
func (a *AvailableSlots) Find(t TimeOfDay) (CandidateSlot, bool) {
	if a == nil {
		return CandidateSlot{}, false
	}
	for _, s := range a.Slots {
		if s.Time == t {
			return s, true
		}
	}
	return CandidateSlot{}, false
}
