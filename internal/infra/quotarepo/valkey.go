package quotarepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/rcbeall1/stylescout/internal/domain/quota"
)

// ValkeyStore persists quota state in a Valkey-compatible database so
// counters survive container restarts without a writable disk.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a Valkey-backed persistence.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "stylescout"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Load implements quota.Persistence.
func (s *ValkeyStore) Load(ctx context.Context) (quota.State, bool, error) {
	cmd := s.client.B().Get().Key(s.stateKey()).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return quota.State{}, false, nil
		}
		return quota.State{}, false, err
	}
	var state quota.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return quota.State{}, false, fmt.Errorf("parse quota state: %w", err)
	}
	return state, true, nil
}

// Save implements quota.Persistence.
func (s *ValkeyStore) Save(ctx context.Context, state quota.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.stateKey()).Value(string(payload)).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) stateKey() string {
	return s.prefix + ":quota"
}

var _ quota.Persistence = (*ValkeyStore)(nil)
