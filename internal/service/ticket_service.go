package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type ticketRepository interface {
	ListByMentee(ctx context.Context, menteeID string) ([]models.Ticket, error)
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
}

type outstandingLessonCounter interface {
	CountOutstanding(ctx context.Context, ticketID string) (int, error)
}

// TicketService exposes a mentee's tickets and the booking precondition gate.
type TicketService struct {
	tickets ticketRepository
	lessons outstandingLessonCounter
	logger  *zap.Logger
	now     func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(tickets ticketRepository, lessons outstandingLessonCounter, logger *zap.Logger) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{tickets: tickets, lessons: lessons, logger: logger, now: time.Now}
}

// ListMine returns the mentee's tickets with the expired flag evaluated now.
func (s *TicketService) ListMine(ctx context.Context, menteeID string) ([]models.Ticket, error) {
	tickets, err := s.tickets.ListByMentee(ctx, menteeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tickets")
	}
	now := s.now()
	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		t.Expired = t.IsExpired(now)
		out = append(out, t)
	}
	return out, nil
}

// GetOwned loads a ticket and checks it belongs to the mentee.
func (s *TicketService) GetOwned(ctx context.Context, menteeID, ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket")
	}
	if ticket.MenteeID != menteeID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "ticket belongs to another user")
	}
	ticket.Expired = ticket.IsExpired(s.now())
	return ticket, nil
}

// Eligibility evaluates whether the mentee may open a booking for the tutorial. It picks the
// first usable ticket with no requested or confirmed lesson outstanding on it.
func (s *TicketService) Eligibility(ctx context.Context, menteeID, tutorialID string) (*models.BookingEligibility, error) {
	tickets, err := s.ListMine(ctx, menteeID)
	if err != nil {
		return nil, err
	}

	result := &models.BookingEligibility{TutorialID: tutorialID, Redirect: models.RedirectPurchase, Reason: "no usable ticket for this tutorial"}
	now := s.now()
	for i := range tickets {
		ticket := tickets[i]
		if ticket.TutorialID != tutorialID || !ticket.Usable(now) {
			continue
		}
		outstanding, err := s.lessons.CountOutstanding(ctx, ticket.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check outstanding lessons")
		}
		if outstanding > 0 {
			result.Redirect = models.RedirectOutstandingLesson
			result.Reason = "a lesson on this ticket is still pending or confirmed"
			continue
		}
		return &models.BookingEligibility{
			TutorialID: tutorialID,
			Eligible:   true,
			TicketID:   ticket.ID,
			Remaining:  ticket.RemainingCount,
			Ticket:     &ticket,
		}, nil
	}
	return result, nil
}

// RequireEligible runs the gate and converts a refusal into PRECONDITION_FAILED carrying
// the redirect target in the response meta.
func (s *TicketService) RequireEligible(ctx context.Context, menteeID, tutorialID string) (*models.BookingEligibility, error) {
	eligibility, err := s.Eligibility(ctx, menteeID, tutorialID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		s.logger.Info("booking gate refused",
			zap.String("mentee_id", menteeID),
			zap.String("tutorial_id", tutorialID),
			zap.String("redirect", eligibility.Redirect),
		)
		return eligibility, appErrors.Clone(appErrors.ErrPreconditionFailed, eligibility.Reason).WithMeta("redirect", eligibility.Redirect)
	}
	return eligibility, nil
}
