package repository

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	appErrors "github.com/noah-isme/mentor-booking-api/pkg/errors"
)

type draftCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// BookingDraftRepository keeps one booking draft per mentee in Redis so any API
// instance can serve the next step of the selection flow.
type BookingDraftRepository struct {
	cache draftCache
	ttl   time.Duration
}

// NewBookingDraftRepository constructs the repository.
func NewBookingDraftRepository(cache draftCache, ttl time.Duration) *BookingDraftRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &BookingDraftRepository{cache: cache, ttl: ttl}
}

func draftKey(userID string) string {
	return "booking-draft:" + userID
}

// Get loads the user's draft. found is false when no live draft exists.
func (r *BookingDraftRepository) Get(ctx context.Context, userID string) (*models.BookingDraft, bool, error) {
	var draft models.BookingDraft
	if err := r.cache.Get(ctx, draftKey(userID), &draft); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &draft, true, nil
}

// Save stores the draft and refreshes its TTL.
func (r *BookingDraftRepository) Save(ctx context.Context, draft *models.BookingDraft) error {
	return r.cache.Set(ctx, draftKey(draft.UserID), draft, r.ttl)
}

// Delete discards the user's draft.
func (r *BookingDraftRepository) Delete(ctx context.Context, userID string) error {
	return r.cache.Delete(ctx, draftKey(userID))
}
