package service

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

// bookingMachine applies selection transitions to a draft. It performs no I/O; the session
// service feeds it the results of slot loading and booking calls.
type bookingMachine struct {
	now func() time.Time
}

func (m bookingMachine) invalid(draft *models.BookingDraft, action string) error {
	return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot %s while booking is %s", action, draft.State))
}

func (m bookingMachine) touch(draft *models.BookingDraft) {
	draft.UpdatedAt = m.now().UTC()
}

func (m bookingMachine) open(userID, tutorialID, ticketID string) *models.BookingDraft {
	now := m.now().UTC()
	return &models.BookingDraft{
		UserID:     userID,
		TutorialID: tutorialID,
		TicketID:   ticketID,
		State:      models.BookingDateUnselected,
		Slots:      []models.CandidateSlot{},
		OpenedAt:   now,
		UpdatedAt:  now,
	}
}

// beginLoading records a date pick. Any previously chosen time is cleared.
func (m bookingMachine) beginLoading(draft *models.BookingDraft, date string) error {
	switch draft.State {
	case models.BookingDateUnselected, models.BookingSlotsReady:
	default:
		return m.invalid(draft, "select a date")
	}
	draft.State = models.BookingSlotsLoading
	draft.SelectedDate = date
	draft.SelectedTime = nil
	draft.Slots = []models.CandidateSlot{}
	draft.Error = ""
	m.touch(draft)
	return nil
}

func (m bookingMachine) slotsLoaded(draft *models.BookingDraft, slots []models.CandidateSlot) {
	if slots == nil {
		slots = []models.CandidateSlot{}
	}
	draft.State = models.BookingSlotsReady
	draft.Slots = slots
	draft.Error = ""
	m.touch(draft)
}

// slotsFailed leaves the draft selectable with no slots so the user can pick the date again.
func (m bookingMachine) slotsFailed(draft *models.BookingDraft, err error) {
	draft.State = models.BookingSlotsReady
	draft.Slots = []models.CandidateSlot{}
	draft.Error = appErrors.FromError(err).Message
	m.touch(draft)
}

func (m bookingMachine) selectTime(draft *models.BookingDraft, at models.TimeOfDay) error {
	if draft.State != models.BookingSlotsReady {
		return m.invalid(draft, "select a time")
	}
	for _, slot := range draft.Slots {
		if slot.Time != at {
			continue
		}
		if !slot.Available {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not available: %s", at, slot.Reason))
		}
		selected := at
		draft.SelectedTime = &selected
		draft.Error = ""
		m.touch(draft)
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a slot on %s", at, draft.SelectedDate))
}

func (m bookingMachine) updateMessage(draft *models.BookingDraft, message string) error {
	if draft.State == models.BookingSubmitting || draft.State == models.BookingClosed {
		return m.invalid(draft, "edit the message")
	}
	if utf8.RuneCountInString(message) > models.MaxRequestMessageLength {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("message must be at most %d characters", models.MaxRequestMessageLength))
	}
	draft.Message = message
	m.touch(draft)
	return nil
}

// beginSubmit requires both a date and a time. A missing selection is a validation error and
// leaves the draft untouched.
func (m bookingMachine) beginSubmit(draft *models.BookingDraft) error {
	if draft.SelectedDate == "" || draft.SelectedTime == nil {
		return appErrors.Clone(appErrors.ErrValidation, "select a date and a time before submitting")
	}
	if draft.State != models.BookingSlotsReady {
		return m.invalid(draft, "submit")
	}
	draft.State = models.BookingSubmitting
	draft.Error = ""
	m.touch(draft)
	return nil
}

func (m bookingMachine) submitSucceeded(draft *models.BookingDraft, lesson *models.Lesson) {
	draft.State = models.BookingSuccess
	draft.Lesson = lesson
	m.touch(draft)
}

// submitFailed returns the draft to slot selection with the rejection surfaced.
func (m bookingMachine) submitFailed(draft *models.BookingDraft, err error) {
	draft.State = models.BookingSlotsReady
	draft.Error = appErrors.FromError(err).Message
	m.touch(draft)
}

func (m bookingMachine) close(draft *models.BookingDraft) {
	draft.State = models.BookingClosed
	m.touch(draft)
}
