package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mentor-booking-api/internal/models"
)

const ticketSelect = `SELECT tk.id, tk.mentee_id, tk.tutorial_id, COALESCE(t.title, '') AS tutorial_title,
	COALESCE(u.nickname, '') AS mentor_nickname, tk.total_count, tk.remaining_count, tk.expired_at, tk.created_at
FROM tickets tk
LEFT JOIN tutorials t ON t.id = tk.tutorial_id
LEFT JOIN users u ON u.id = t.mentor_id`

// TicketRepository reads prepaid lesson tickets. Tickets are issued by the payment flow.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository constructs the repository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// ListByMentee returns all tickets owned by a mentee, newest first.
func (r *TicketRepository) ListByMentee(ctx context.Context, menteeID string) ([]models.Ticket, error) {
	query := ticketSelect + ` WHERE tk.mentee_id = $1 ORDER BY tk.created_at DESC`
	var tickets []models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query, menteeID); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// FindByID returns a ticket. sql.ErrNoRows is returned unwrapped.
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := ticketSelect + ` WHERE tk.id = $1`
	var ticket models.Ticket
	if err := r.db.GetContext(ctx, &ticket, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return &ticket, nil
}
