package feedbackrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rcbeall1/stylescout/internal/domain/feedback"
)

// fileLayout matches the on-disk JSON shape.
type fileLayout struct {
	Feedback []feedback.Entry `json:"feedback"`
}

// FileRepository stores feedback in a single pretty-printed JSON file.
// Writes go through a temp file and rename so a crash never leaves a
// half-written file behind.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository constructs the repository.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Add implements feedback.Repository.
func (r *FileRepository) Add(ctx context.Context, entry feedback.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.loadLocked()
	if err != nil {
		return err
	}
	return r.saveLocked(append(entries, entry))
}

// List implements feedback.Repository.
func (r *FileRepository) List(ctx context.Context) ([]feedback.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// Trim implements feedback.Repository.
func (r *FileRepository) Trim(ctx context.Context, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.loadLocked()
	if err != nil {
		return err
	}
	if len(entries) <= keep {
		return nil
	}
	return r.saveLocked(entries[len(entries)-keep:])
}

func (r *FileRepository) loadLocked() ([]feedback.Entry, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read feedback file: %w", err)
	}
	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parse feedback file: %w", err)
	}
	return layout.Feedback, nil
}

func (r *FileRepository) saveLocked(entries []feedback.Entry) error {
	if entries == nil {
		entries = []feedback.Entry{}
	}
	data, err := json.MarshalIndent(fileLayout{Feedback: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feedback file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create feedback dir: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write feedback file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace feedback file: %w", err)
	}
	return nil
}

var _ feedback.Repository = (*FileRepository)(nil)
