package quotarepo

import (
	"context"
	"sync"

	"github.com/rcbeall1/stylescout/internal/domain/quota"
)

// MemoryStore keeps quota state in process memory for tests and for the
// degraded mode used when durable persistence is unavailable.
type MemoryStore struct {
	mu    sync.Mutex
	state quota.State
	set   bool
}

// NewMemoryStore constructs an empty in-memory persistence.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements quota.Persistence.
func (s *MemoryStore) Load(_ context.Context) (quota.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return quota.State{}, false, nil
	}
	return cloneState(s.state), true, nil
}

// Save implements quota.Persistence.
func (s *MemoryStore) Save(_ context.Context, state quota.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = cloneState(state)
	s.set = true
	return nil
}

func cloneState(state quota.State) quota.State {
	providers := make(map[string]quota.Counter, len(state.Providers))
	for k, v := range state.Providers {
		providers[k] = v
	}
	return quota.State{Date: state.Date, Providers: providers}
}

var _ quota.Persistence = (*MemoryStore)(nil)
