package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mentor-booking-api/internal/models"
)

// Sentinel outcomes of booking transactions.
var (
	ErrSlotTaken       = errors.New("slot already booked")
	ErrTicketExhausted = errors.New("ticket exhausted or expired")
	ErrStatusChanged   = errors.New("lesson status changed concurrently")
)

const uniqueViolation = "23505"

const lessonSelect = `SELECT l.id, l.ticket_id, l.tutorial_id, COALESCE(t.title, '') AS tutorial_title, l.mentor_id, l.mentee_id,
	l.status, l.scheduled_at, l.request_message, l.reject_reason, l.created_at, l.updated_at
FROM lessons l
LEFT JOIN tutorials t ON t.id = l.tutorial_id`

// LessonRepository persists booked lessons and keeps ticket balances consistent.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs the repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func statusArray(statuses ...models.LessonStatus) pq.StringArray {
	arr := make(pq.StringArray, 0, len(statuses))
	for _, s := range statuses {
		arr = append(arr, string(s))
	}
	return arr
}

// List returns lessons matching the filter ordered by schedule.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.MenteeID != "" {
		add("l.mentee_id = $%d", filter.MenteeID)
	}
	if filter.MentorID != "" {
		add("l.mentor_id = $%d", filter.MentorID)
	}
	if filter.TicketID != "" {
		add("l.ticket_id = $%d", filter.TicketID)
	}
	if filter.Status != nil {
		add("l.status = $%d", string(*filter.Status))
	}

	var sb strings.Builder
	sb.WriteString(lessonSelect)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY l.scheduled_at DESC")

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// ListOccupying returns a mentor's slot-holding lessons starting in [from, to).
func (r *LessonRepository) ListOccupying(ctx context.Context, mentorID string, from, to time.Time) ([]models.Lesson, error) {
	query := lessonSelect + ` WHERE l.mentor_id = $1 AND l.scheduled_at >= $2 AND l.scheduled_at < $3 AND l.status = ANY($4)
ORDER BY l.scheduled_at`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, mentorID, from, to, statusArray(models.OccupyingLessonStatuses...)); err != nil {
		return nil, fmt.Errorf("list occupying lessons: %w", err)
	}
	return lessons, nil
}

// CountOutstanding counts lessons on a ticket that are requested or confirmed.
func (r *LessonRepository) CountOutstanding(ctx context.Context, ticketID string) (int, error) {
	const query = `SELECT COUNT(1) FROM lessons WHERE ticket_id = $1 AND status = ANY($2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, ticketID, statusArray(models.LessonRequested, models.LessonConfirmed)); err != nil {
		return 0, fmt.Errorf("count outstanding lessons: %w", err)
	}
	return count, nil
}

// FindByID returns a lesson. sql.ErrNoRows is returned unwrapped.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := lessonSelect + ` WHERE l.id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

func slotLockKey(at time.Time) string {
	return at.UTC().Format(time.RFC3339)
}

// CreateBooking inserts a REQUESTED lesson and draws one credit from its ticket in a single
// transaction. The ticket row is locked so concurrent bookings cannot overdraw it, and a
// transaction-scoped advisory lock on (mentor, start) keeps two tickets off the same slot.
func (r *LessonRepository) CreateBooking(ctx context.Context, lesson *models.Lesson, now time.Time) (err error) {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	lesson.Status = models.LessonRequested
	lesson.CreatedAt = now.UTC()
	lesson.UpdatedAt = lesson.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ticket struct {
		RemainingCount int       `db:"remaining_count"`
		ExpiredAt      time.Time `db:"expired_at"`
	}
	const lockTicket = `SELECT remaining_count, expired_at FROM tickets WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &ticket, lockTicket, lesson.TicketID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock ticket: %w", err)
	}
	if ticket.RemainingCount <= 0 || !now.Before(ticket.ExpiredAt) {
		err = ErrTicketExhausted
		return err
	}

	// Bookings on different tickets only meet at the mentor's slot, so serialise on it.
	const lockSlot = `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`
	if _, err = tx.ExecContext(ctx, lockSlot, lesson.MentorID, slotLockKey(lesson.ScheduledAt)); err != nil {
		return fmt.Errorf("lock slot: %w", err)
	}

	var taken int
	const collision = `SELECT COUNT(1) FROM lessons WHERE mentor_id = $1 AND scheduled_at = $2 AND status = ANY($3)`
	if err = tx.GetContext(ctx, &taken, collision, lesson.MentorID, lesson.ScheduledAt, statusArray(models.OccupyingLessonStatuses...)); err != nil {
		return fmt.Errorf("check slot collision: %w", err)
	}
	if taken > 0 {
		err = ErrSlotTaken
		return err
	}

	const insert = `INSERT INTO lessons (id, ticket_id, tutorial_id, mentor_id, mentee_id, status, scheduled_at, request_message, created_at, updated_at)
VALUES (:id, :ticket_id, :tutorial_id, :mentor_id, :mentee_id, :status, :scheduled_at, :request_message, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, lesson); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = ErrSlotTaken
			return err
		}
		return fmt.Errorf("insert lesson: %w", err)
	}

	const draw = `UPDATE tickets SET remaining_count = remaining_count - 1 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, draw, lesson.TicketID); err != nil {
		return fmt.Errorf("draw ticket credit: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// TransitionStatus moves a lesson from one status to another. When restoreCredit is set the
// lesson's ticket regains one credit in the same transaction.
func (r *LessonRepository) TransitionStatus(ctx context.Context, id string, from, to models.LessonStatus, rejectReason *string, restoreCredit bool, now time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lesson transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ticketID string
	const update = `UPDATE lessons SET status = $1, reject_reason = COALESCE($2, reject_reason), updated_at = $3
WHERE id = $4 AND status = $5 RETURNING ticket_id`
	if err = tx.GetContext(ctx, &ticketID, update, string(to), rejectReason, now.UTC(), id, string(from)); err != nil {
		if err == sql.ErrNoRows {
			err = ErrStatusChanged
			return err
		}
		return fmt.Errorf("update lesson status: %w", err)
	}

	if restoreCredit {
		const restore = `UPDATE tickets SET remaining_count = remaining_count + 1 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, restore, ticketID); err != nil {
			return fmt.Errorf("restore ticket credit: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit lesson transition: %w", err)
	}
	return nil
}
