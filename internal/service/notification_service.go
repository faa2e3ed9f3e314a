package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	"github.com/noah-isme/mentor-booking-api/pkg/events"
	"github.com/noah-isme/mentor-booking-api/pkg/jobs"
	"github.com/noah-isme/mentor-booking-api/pkg/mailer"
)

// Lesson notification job and event types.
const (
	JobLessonRequested = "lesson.requested"
	JobLessonConfirmed = "lesson.confirmed"
	JobLessonRejected  = "lesson.rejected"
)

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type eventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// NotificationService fans booking lifecycle changes out to Kafka and email via the job queue.
type NotificationService struct {
	queue     jobEnqueuer
	publisher eventPublisher
	mailer    mailSender
	users     userReader
	location  *time.Location
	logger    *zap.Logger
}

// NewNotificationService constructs the service. publisher and mail may be nil to disable
// that sink.
func NewNotificationService(queue jobEnqueuer, publisher eventPublisher, mail mailSender, users userReader, location *time.Location, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &NotificationService{queue: queue, publisher: publisher, mailer: mail, users: users, location: location, logger: logger}
}

// Register attaches the job handlers to mux.
func (s *NotificationService) Register(mux *jobs.Mux) {
	for _, jobType := range []string{JobLessonRequested, JobLessonConfirmed, JobLessonRejected} {
		mux.Handle(jobType, s.handle)
	}
}

// LessonBooked enqueues the request notification for a newly booked lesson.
func (s *NotificationService) LessonBooked(ctx context.Context, lesson *models.Lesson) {
	s.enqueue(JobLessonRequested, lesson)
}

// LessonTransitioned enqueues notifications for mentor decisions.
func (s *NotificationService) LessonTransitioned(ctx context.Context, lesson *models.Lesson) {
	switch lesson.Status {
	case models.LessonConfirmed:
		s.enqueue(JobLessonConfirmed, lesson)
	case models.LessonRejected:
		s.enqueue(JobLessonRejected, lesson)
	}
}

func (s *NotificationService) enqueue(jobType string, lesson *models.Lesson) {
	if s.queue == nil || lesson == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: jobType, Payload: *lesson}); err != nil {
		s.logger.Warn("failed to enqueue lesson notification",
			zap.String("type", jobType),
			zap.String("lesson_id", lesson.ID),
			zap.Error(err),
		)
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	lesson, ok := job.Payload.(models.Lesson)
	if !ok {
		return fmt.Errorf("%w: %s payload %T", jobs.ErrUnknownJobType, job.Type, job.Payload)
	}

	if s.publisher != nil {
		// Retries reuse the job id so consumers can drop duplicates.
		evt := events.Event{ID: job.ID, Type: job.Type, Key: lesson.ID, Payload: lesson}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			return err
		}
	}

	if s.mailer == nil || s.users == nil {
		return nil
	}
	recipientID := lesson.MenteeID
	if job.Type == JobLessonRequested {
		recipientID = lesson.MentorID
	}
	recipient, err := s.users.FindByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("load notification recipient: %w", err)
	}
	msg := s.compose(job.Type, lesson)
	msg.To = recipient.Email
	return s.mailer.Send(ctx, msg)
}

func (s *NotificationService) compose(jobType string, lesson models.Lesson) mailer.Message {
	when := lesson.ScheduledAt.In(s.location).Format("2006-01-02 15:04 MST")
	title := lesson.TutorialTitle
	if title == "" {
		title = "your tutorial"
	}
	switch jobType {
	case JobLessonConfirmed:
		return mailer.Message{
			Subject: "Lesson confirmed",
			Body:    fmt.Sprintf("Your lesson for %s on %s has been confirmed.", title, when),
		}
	case JobLessonRejected:
		reason := ""
		if lesson.RejectReason != nil {
			reason = "\nReason: " + *lesson.RejectReason
		}
		return mailer.Message{
			Subject: "Lesson request declined",
			Body:    fmt.Sprintf("Your lesson request for %s on %s was declined. The lesson credit has been returned to your ticket.%s", title, when, reason),
		}
	default:
		body := fmt.Sprintf("A new lesson for %s was requested on %s.", title, when)
		if lesson.RequestMessage != nil && *lesson.RequestMessage != "" {
			body += "\nMessage: " + *lesson.RequestMessage
		}
		return mailer.Message{Subject: "New lesson request", Body: body}
	}
}
