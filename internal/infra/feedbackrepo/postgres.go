package feedbackrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcbeall1/stylescout/internal/domain/feedback"
)

// PostgresRepository implements feedback.Repository using pgx.
//
// Expected schema:
//
//	CREATE TABLE feedback (
//	    id            TEXT PRIMARY KEY,
//	    submitted_at  TIMESTAMPTZ NOT NULL,
//	    rating        INT NOT NULL,
//	    options       TEXT[] NOT NULL DEFAULT '{}',
//	    text_feedback TEXT NOT NULL DEFAULT '',
//	    user_agent    TEXT NOT NULL DEFAULT '',
//	    ip            TEXT NOT NULL DEFAULT ''
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Add implements feedback.Repository.
func (r *PostgresRepository) Add(ctx context.Context, entry feedback.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO feedback (id, submitted_at, rating, options, text_feedback, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.Timestamp, entry.Rating, entry.Options, entry.TextFeedback, entry.UserAgent, entry.IP)
	return err
}

// List implements feedback.Repository. Entries come back oldest first to
// match the file layout ordering.
func (r *PostgresRepository) List(ctx context.Context) ([]feedback.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, submitted_at, rating, options, text_feedback, user_agent, ip
		FROM feedback
		ORDER BY submitted_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []feedback.Entry
	for rows.Next() {
		var entry feedback.Entry
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Rating, &entry.Options,
			&entry.TextFeedback, &entry.UserAgent, &entry.IP); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Trim implements feedback.Repository.
func (r *PostgresRepository) Trim(ctx context.Context, keep int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM feedback
		WHERE id NOT IN (
			SELECT id FROM feedback ORDER BY submitted_at DESC LIMIT $1
		)
	`, keep)
	return err
}

var _ feedback.Repository = (*PostgresRepository)(nil)
