package models

import "time"

// BookingState is the position of a booking draft in the selection flow.
type BookingState string

const (
	BookingClosed         BookingState = "CLOSED"
	BookingDateUnselected BookingState = "DATE_UNSELECTED"
	BookingSlotsLoading   BookingState = "SLOTS_LOADING"
	BookingSlotsReady     BookingState = "SLOTS_READY"
	BookingSubmitting     BookingState = "SUBMITTING"
	BookingSuccess        BookingState = "SUCCESS"
	BookingFailed         BookingState = "FAILED"
)

// MaxRequestMessageLength bounds the free-text note sent with a booking.
const MaxRequestMessageLength = 500

// BookingDraft is the per-mentee working state of an in-progress booking.
type BookingDraft struct {
	UserID       string          `json:"user_id"`
	TutorialID   string          `json:"tutorial_id"`
	TicketID     string          `json:"ticket_id"`
	State        BookingState    `json:"state"`
	SelectedDate string          `json:"selected_date,omitempty"`
	SelectedTime *TimeOfDay      `json:"selected_time,omitempty"`
	Message      string          `json:"message"`
	Slots        []CandidateSlot `json:"slots"`
	Error        string          `json:"error,omitempty"`
	VisibleMonth string          `json:"visible_month,omitempty"`
	Occupancy    *MonthOccupancy `json:"occupancy,omitempty"`
	Lesson       *Lesson         `json:"lesson,omitempty"`
	OpenedAt     time.Time       `json:"opened_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OpenBookingSessionRequest starts a booking for a tutorial, optionally with a preselected date.
type OpenBookingSessionRequest struct {
	TutorialID string `json:"tutorial_id" validate:"required"`
	Date       string `json:"date" validate:"omitempty,ymd"`
}

// SelectDateRequest picks a calendar date.
type SelectDateRequest struct {
	Date string `json:"date" validate:"required,ymd"`
}

// SelectTimeRequest picks a slot start time.
type SelectTimeRequest struct {
	Time string `json:"time" validate:"required,timeofday"`
}

// UpdateMessageRequest edits the request note.
type UpdateMessageRequest struct {
	Message string `json:"message" validate:"max=500"`
}

// BookingResult is returned after a successful submission.
type BookingResult struct {
	Lesson  *Lesson  `json:"lesson"`
	Refresh []string `json:"refresh"`
}
