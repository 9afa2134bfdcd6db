package feedbackrepo

import (
	"context"
	"sync"

	"github.com/rcbeall1/stylescout/internal/domain/feedback"
)

// MemoryRepository keeps feedback in process memory. Used by tests and as
// the fallback when no file path or DSN is configured.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []feedback.Entry
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Add implements feedback.Repository.
func (r *MemoryRepository) Add(ctx context.Context, entry feedback.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// List implements feedback.Repository.
func (r *MemoryRepository) List(ctx context.Context) ([]feedback.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]feedback.Entry(nil), r.entries...), nil
}

// Trim implements feedback.Repository.
func (r *MemoryRepository) Trim(ctx context.Context, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) > keep {
		r.entries = append([]feedback.Entry(nil), r.entries[len(r.entries)-keep:]...)
	}
	return nil
}

var _ feedback.Repository = (*MemoryRepository)(nil)
