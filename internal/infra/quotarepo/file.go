package quotarepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rcbeall1/stylescout/internal/domain/quota"
)

// FileStore persists quota state as pretty-printed JSON on disk.
type FileStore struct {
	path string
}

// NewFileStore constructs a file-backed persistence at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements quota.Persistence.
func (s *FileStore) Load(_ context.Context) (quota.State, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return quota.State{}, false, nil
		}
		return quota.State{}, false, fmt.Errorf("read quota file: %w", err)
	}
	var state quota.State
	if err := json.Unmarshal(data, &state); err != nil {
		return quota.State{}, false, fmt.Errorf("parse quota file: %w", err)
	}
	return state, true, nil
}

// Save implements quota.Persistence. The state is written atomically so a
// crash mid-write never leaves a truncated file behind.
func (s *FileStore) Save(_ context.Context, state quota.State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create quota data dir: %w", err)
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quota state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write quota file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace quota file: %w", err)
	}
	return nil
}

var _ quota.Persistence = (*FileStore)(nil)
