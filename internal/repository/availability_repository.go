package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-booking-api/internal/models"
)

const availabilityColumns = `id, mentor_id, day_of_week, start_time, end_time, active, created_at, updated_at`

// AvailabilityRepository persists mentors' recurring weekly windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByMentor returns a mentor's windows ordered by weekday and start time.
func (r *AvailabilityRepository) ListByMentor(ctx context.Context, mentorID string, activeOnly bool) ([]models.AvailabilityWindow, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_windows WHERE mentor_id = $1`
	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY CASE day_of_week
		WHEN 'SUNDAY' THEN 0 WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3
		WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 ELSE 6 END, start_time`

	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, mentorID); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// GetByID returns one window. sql.ErrNoRows is returned unwrapped.
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_windows WHERE id = $1`
	var window models.AvailabilityWindow
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get availability window: %w", err)
	}
	return &window, nil
}

// Create inserts a window, assigning identifier and timestamps.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now

	const query = `INSERT INTO availability_windows (id, mentor_id, day_of_week, start_time, end_time, active, created_at, updated_at)
		VALUES (:id, :mentor_id, :day_of_week, :start_time, :end_time, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create availability window: %w", err)
	}
	return nil
}

// Delete removes a window. sql.ErrNoRows is returned when nothing matched.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
