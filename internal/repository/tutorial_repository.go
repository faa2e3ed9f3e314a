package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-booking-api/internal/models"
)

// TutorialRepository reads the tutorial catalogue.
type TutorialRepository struct {
	db *sqlx.DB
}

// NewTutorialRepository constructs the repository.
func NewTutorialRepository(db *sqlx.DB) *TutorialRepository {
	return &TutorialRepository{db: db}
}

// FindByID returns a tutorial with its mentor's nickname.
func (r *TutorialRepository) FindByID(ctx context.Context, id string) (*models.Tutorial, error) {
	const query = `SELECT t.id, t.mentor_id, COALESCE(u.nickname, '') AS mentor_nickname, t.title, t.duration_minutes, t.status, t.created_at, t.updated_at
FROM tutorials t
LEFT JOIN users u ON u.id = t.mentor_id
WHERE t.id = $1`
	var tutorial models.Tutorial
	if err := r.db.GetContext(ctx, &tutorial, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find tutorial: %w", err)
	}
	return &tutorial, nil
}

// ListByMentor returns all tutorials a mentor offers.
func (r *TutorialRepository) ListByMentor(ctx context.Context, mentorID string) ([]models.Tutorial, error) {
	const query = `SELECT t.id, t.mentor_id, COALESCE(u.nickname, '') AS mentor_nickname, t.title, t.duration_minutes, t.status, t.created_at, t.updated_at
FROM tutorials t
LEFT JOIN users u ON u.id = t.mentor_id
WHERE t.mentor_id = $1
ORDER BY t.created_at DESC`
	var tutorials []models.Tutorial
	if err := r.db.SelectContext(ctx, &tutorials, query, mentorID); err != nil {
		return nil, fmt.Errorf("list tutorials by mentor: %w", err)
	}
	return tutorials, nil
}
