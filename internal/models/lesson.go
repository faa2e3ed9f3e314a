package models

import "time"

// LessonStatus tracks a booked lesson through its lifecycle.
type LessonStatus string

const (
	LessonRequested  LessonStatus = "REQUESTED"
	LessonConfirmed  LessonStatus = "CONFIRMED"
	LessonRejected   LessonStatus = "REJECTED"
	LessonInProgress LessonStatus = "IN_PROGRESS"
	LessonCompleted  LessonStatus = "COMPLETED"
)

// OccupyingLessonStatuses are the statuses that hold a slot.
var OccupyingLessonStatuses = []LessonStatus{LessonRequested, LessonConfirmed, LessonInProgress}

// Valid reports whether s is a known status.
func (s LessonStatus) Valid() bool {
	switch s {
	case LessonRequested, LessonConfirmed, LessonRejected, LessonInProgress, LessonCompleted:
		return true
	}
	return false
}

// Occupying reports whether a lesson in status s blocks its slot.
func (s LessonStatus) Occupying() bool {
	for _, st := range OccupyingLessonStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Outstanding reports whether the lesson still awaits a mentor decision or delivery.
func (s LessonStatus) Outstanding() bool {
	return s == LessonRequested || s == LessonConfirmed
}

var lessonTransitions = map[LessonStatus][]LessonStatus{
	LessonRequested:  {LessonConfirmed, LessonRejected},
	LessonConfirmed:  {LessonInProgress},
	LessonInProgress: {LessonCompleted},
}

// CanTransition reports whether from -> to is an allowed lifecycle step.
func CanTransition(from, to LessonStatus) bool {
	for _, next := range lessonTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Lesson is one booked session drawn from a ticket.
type Lesson struct {
	ID             string       `db:"id" json:"id"`
	TicketID       string       `db:"ticket_id" json:"ticket_id"`
	TutorialID     string       `db:"tutorial_id" json:"tutorial_id"`
	TutorialTitle  string       `db:"tutorial_title" json:"tutorial_title,omitempty"`
	MentorID       string       `db:"mentor_id" json:"mentor_id"`
	MenteeID       string       `db:"mentee_id" json:"mentee_id"`
	Status         LessonStatus `db:"status" json:"status"`
	ScheduledAt    time.Time    `db:"scheduled_at" json:"scheduled_at"`
	RequestMessage *string      `db:"request_message" json:"request_message,omitempty"`
	RejectReason   *string      `db:"reject_reason" json:"reject_reason,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// LessonFilter narrows lesson listings.
type LessonFilter struct {
	MenteeID string
	MentorID string
	TicketID string
	Status   *LessonStatus
}

// CreateLessonRequest books one slot against a ticket.
type CreateLessonRequest struct {
	LessonDate     string `json:"lesson_date" validate:"required,ymd"`
	LessonTime     string `json:"lesson_time" validate:"required,timeofday"`
	RequestMessage string `json:"request_message" validate:"max=500"`
}

// RejectLessonRequest carries the mandatory rejection reason.
type RejectLessonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
