package models

import "time"

// Ticket is a prepaid bundle of lessons for one tutorial.
type Ticket struct {
	ID             string    `db:"id" json:"id"`
	MenteeID       string    `db:"mentee_id" json:"mentee_id"`
	TutorialID     string    `db:"tutorial_id" json:"tutorial_id"`
	TutorialTitle  string    `db:"tutorial_title" json:"tutorial_title"`
	MentorNickname string    `db:"mentor_nickname" json:"mentor_nickname"`
	TotalCount     int       `db:"total_count" json:"total_count"`
	RemainingCount int       `db:"remaining_count" json:"remaining_count"`
	ExpiredAt      time.Time `db:"expired_at" json:"expired_at"`
	Expired        bool      `db:"-" json:"expired"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the ticket has passed its expiry at now.
func (t Ticket) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiredAt)
}

// Usable reports whether the ticket can pay for another lesson.
func (t Ticket) Usable(now time.Time) bool {
	return t.RemainingCount > 0 && !t.IsExpired(now)
}

// BookingEligibility is the outcome of the booking precondition gate.
type BookingEligibility struct {
	TutorialID string  `json:"tutorial_id"`
	Eligible   bool    `json:"eligible"`
	TicketID   string  `json:"ticket_id,omitempty"`
	Remaining  int     `json:"remaining_count"`
	Redirect   string  `json:"redirect,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Ticket     *Ticket `json:"ticket,omitempty"`
}

// Redirect targets returned when a mentee may not book.
const (
	RedirectPurchase          = "purchase"
	RedirectOutstandingLesson = "outstanding_lesson"
)
