package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/mentor-booking-api/internal/models"
)

// DraftStore persists one booking draft per user.
type DraftStore interface {
	Get(ctx context.Context, userID string) (*models.BookingDraft, bool, error)
	Save(ctx context.Context, draft *models.BookingDraft) error
	Delete(ctx context.Context, userID string) error
}

// MemoryDraftStore keeps drafts in process and expires them after ttl of inactivity.
type MemoryDraftStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]models.BookingDraft
	now   func() time.Time
}

// NewMemoryDraftStore constructs an in-process store.
func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryDraftStore{ttl: ttl, items: make(map[string]models.BookingDraft), now: time.Now}
}

// Get returns a copy of the user's draft.
func (s *MemoryDraftStore) Get(_ context.Context, userID string) (*models.BookingDraft, bool, error) {
	s.mu.RLock()
	draft, ok := s.items[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(draft.UpdatedAt) > s.ttl {
		_ = s.Delete(context.Background(), userID)
		return nil, false, nil
	}
	return &draft, true, nil
}

// Save stores a copy of draft.
func (s *MemoryDraftStore) Save(_ context.Context, draft *models.BookingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[draft.UserID] = *draft
	return nil
}

// Delete removes the user's draft.
func (s *MemoryDraftStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.items, userID)
	s.mu.Unlock()
	return nil
}

// Sweep drops every expired draft and reports how many were removed.
func (s *MemoryDraftStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for userID, draft := range s.items {
		if now.Sub(draft.UpdatedAt) > s.ttl {
			delete(s.items, userID)
			removed++
		}
	}
	return removed
}

// StartSweeper sweeps every interval until ctx is done. A non-positive
// interval sweeps once per ttl.
func (s *MemoryDraftStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
