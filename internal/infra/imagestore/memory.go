package imagestore

import (
	"context"
	"sync"
	"time"

	"github.com/rcbeall1/stylescout/internal/domain/stylist"
	"github.com/rcbeall1/stylescout/pkg/util"
)

// MemoryStore holds embedded image blobs in process memory for a bounded
// retention window. Expired handles behave exactly like unknown handles.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	blobs map[string]stylist.ImageBlob
	now   func() time.Time
}

// NewMemoryStore constructs a store that retains blobs for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		blobs: make(map[string]stylist.ImageBlob),
		now:   util.NowUTC,
	}
}

// Save implements stylist.ImageStore.
func (s *MemoryStore) Save(_ context.Context, id string, blob stylist.ImageBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if blob.StoredAt.IsZero() {
		blob.StoredAt = s.now()
	}
	s.sweepLocked()
	s.blobs[id] = blob
	return nil
}

// Fetch implements stylist.ImageStore.
func (s *MemoryStore) Fetch(_ context.Context, id string) (stylist.ImageBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[id]
	if !ok {
		return stylist.ImageBlob{}, false, nil
	}
	if s.expired(blob) {
		delete(s.blobs, id)
		return stylist.ImageBlob{}, false, nil
	}
	return blob, true, nil
}

func (s *MemoryStore) expired(blob stylist.ImageBlob) bool {
	return s.now().Sub(blob.StoredAt) > s.ttl
}

// sweepLocked purges expired entries so abandoned handles do not pile up
// between fetches. Callers must hold s.mu.
func (s *MemoryStore) sweepLocked() {
	for id, blob := range s.blobs {
		if s.expired(blob) {
			delete(s.blobs, id)
		}
	}
}

var _ stylist.ImageStore = (*MemoryStore)(nil)
