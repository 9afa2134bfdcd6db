package quota

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rcbeall1/stylescout/pkg/util"
)

// defaultDailyLimit applies to counter keys without a configured limit.
const defaultDailyLimit = 100

// Counter is one persisted daily counter.
type Counter struct {
	Requests  int    `json:"requests"`
	LastReset string `json:"lastReset"`
}

// State is the full persisted shape of the store, matching the on-disk
// JSON layout.
type State struct {
	Date      string             `json:"date"`
	Providers map[string]Counter `json:"providers"`
}

// Persistence loads and saves store state. Implementations live in
// internal/infra/quotarepo; a failing backend degrades the store to
// in-memory tracking instead of blocking traffic.
type Persistence interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, state State) error
}

// Store owns the daily usage counters. Every read-modify-write is
// serialized under one mutex so concurrent requests cannot interleave
// against the backing persistence.
type Store struct {
	mu     sync.Mutex
	limits map[string]int
	repo   Persistence
	logger *slog.Logger
	now    func() time.Time

	state  State
	loaded bool
}

// NewStore constructs the store. limits is keyed like the counters
// (provider, or provider-images).
func NewStore(limits map[string]int, repo Persistence, logger *slog.Logger) *Store {
	copied := make(map[string]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return &Store{
		limits: copied,
		repo:   repo,
		logger: logger.With("component", "quota.store"),
		now:    util.NowUTC,
	}
}

// Check performs the admission read for a (provider, operation-type) key.
// The daily rollover happens before the read, so a request arriving just
// after midnight always sees an empty quota.
func (s *Store) Check(ctx context.Context, provider, opType string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCurrentLocked(ctx)

	key := Key(provider, opType)
	counter := s.state.Providers[key]
	limit := s.limitFor(key)
	return Status{
		Allowed:   counter.Requests < limit,
		Current:   counter.Requests,
		Limit:     limit,
		Remaining: max(0, limit-counter.Requests),
	}
}

// Increment bumps a counter and persists the new state. Never-seen keys
// initialize lazily to zero.
func (s *Store) Increment(ctx context.Context, provider, opType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCurrentLocked(ctx)

	key := Key(provider, opType)
	counter := s.state.Providers[key]
	counter.Requests++
	if counter.LastReset == "" {
		counter.LastReset = s.state.Date
	}
	s.state.Providers[key] = counter
	s.saveLocked(ctx)
	return counter.Requests
}

// ResetProvider zeroes one counter key and stamps the current day.
func (s *Store) ResetProvider(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCurrentLocked(ctx)

	if counter, ok := s.state.Providers[key]; ok {
		counter.Requests = 0
		counter.LastReset = util.DayString(s.now())
		s.state.Providers[key] = counter
		s.saveLocked(ctx)
	}
}

// ResetAll zeroes every counter.
func (s *Store) ResetAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.emptyState()
	s.loaded = true
	s.saveLocked(ctx)
}

// Usage snapshots every counter for the admin endpoint.
func (s *Store) Usage(ctx context.Context) Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCurrentLocked(ctx)

	usage := Usage{Date: s.state.Date, Providers: make(map[string]KeyUsage, len(s.state.Providers))}
	for key, counter := range s.state.Providers {
		limit := s.limitFor(key)
		percent := 0
		if limit > 0 {
			percent = int(float64(counter.Requests)/float64(limit)*100 + 0.5)
		}
		usage.Providers[key] = KeyUsage{
			Requests:    counter.Requests,
			Limit:       limit,
			Remaining:   max(0, limit-counter.Requests),
			PercentUsed: percent,
		}
	}
	return usage
}

// Limits returns the configured limits for the admin config endpoint.
func (s *Store) Limits() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.limits))
	for k, v := range s.limits {
		out[k] = v
	}
	return out
}

func (s *Store) limitFor(key string) int {
	if limit, ok := s.limits[key]; ok {
		return limit
	}
	return defaultDailyLimit
}

// ensureCurrentLocked lazily loads persisted state and applies the daily
// rollover. Callers must hold s.mu.
func (s *Store) ensureCurrentLocked(ctx context.Context) {
	if !s.loaded {
		s.state = s.emptyState()
		if s.repo != nil {
			state, ok, err := s.repo.Load(ctx)
			switch {
			case err != nil:
				s.logger.Error("quota state load failed, tracking in memory", "error", err)
			case ok && state.Providers != nil:
				s.state = state
			}
		}
		s.loaded = true
	}

	today := util.DayString(s.now())
	if s.state.Date != today {
		s.state = s.emptyState()
		s.saveLocked(ctx)
	}
}

func (s *Store) emptyState() State {
	today := util.DayString(s.now())
	providers := make(map[string]Counter, len(s.limits))
	for key := range s.limits {
		providers[key] = Counter{LastReset: today}
	}
	return State{Date: today, Providers: providers}
}

func (s *Store) saveLocked(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, s.state); err != nil {
		s.logger.Error("quota state save failed", "error", err)
	}
}
