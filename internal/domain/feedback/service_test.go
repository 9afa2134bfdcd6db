package feedback

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"
	"github.com/rcbeall1/stylescout/pkg/logger"
)

type memoryRepo struct {
	entries []Entry
}

func (r *memoryRepo) Add(ctx context.Context, entry Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Entry, error) {
	return append([]Entry(nil), r.entries...), nil
}

func (r *memoryRepo) Trim(ctx context.Context, keep int) error {
	if len(r.entries) > keep {
		r.entries = r.entries[len(r.entries)-keep:]
	}
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, logger.New())
}

func TestSubmitValidEntry(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)

	entry, err := svc.Submit(context.Background(), Submission{
		Rating:       4,
		Options:      []string{"helpful-advice", "would-recommend"},
		TextFeedback: "Loved the Lisbon tips!",
		UserAgent:    "test-agent",
		IP:           "203.0.113.9",
	})
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.Equal(t, 4, entry.Rating)
	require.Equal(t, "Loved the Lisbon tips!", entry.TextFeedback)
	require.Len(t, repo.entries, 1)
}

func TestSubmitAssignsUniqueIDs(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		entry, err := svc.Submit(context.Background(), Submission{Rating: 5})
		require.NoError(t, err)
		require.False(t, seen[entry.ID], "duplicate id %s", entry.ID)
		seen[entry.ID] = true
	}
}

func TestSubmitRejectsBadRating(t *testing.T) {
	svc := newTestService(&memoryRepo{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), Submission{Rating: rating})
		require.Error(t, err, rating)
		require.True(t, apperrors.IsCode(err, "invalid_request"))
		require.ErrorContains(t, err, "Rating must be between 1 and 5")
	}
}

func TestSubmitRejectsUnknownOptions(t *testing.T) {
	svc := newTestService(&memoryRepo{})

	_, err := svc.Submit(context.Background(), Submission{
		Rating:  5,
		Options: []string{"helpful-advice", "free-money"},
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "Invalid feedback options")
}

func TestSubmitRejectsOversizedText(t *testing.T) {
	svc := newTestService(&memoryRepo{})

	_, err := svc.Submit(context.Background(), Submission{
		Rating:       3,
		TextFeedback: strings.Repeat("a", 501),
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "less than 500 characters")
}

func TestSubmitSanitizesText(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo)

	entry, err := svc.Submit(context.Background(), Submission{
		Rating:       5,
		TextFeedback: `<script>alert("x")</script> great & "useful"`,
	})
	require.NoError(t, err)
	require.NotContains(t, entry.TextFeedback, "<script>")
	require.NotContains(t, entry.TextFeedback, `"`)
	require.Contains(t, entry.TextFeedback, "great &amp;")
}

func TestSubmitCapsStoredEntries(t *testing.T) {
	repo := &memoryRepo{}
	for i := 0; i < maxEntries; i++ {
		repo.entries = append(repo.entries, Entry{Rating: 3})
	}
	svc := newTestService(repo)

	_, err := svc.Submit(context.Background(), Submission{Rating: 5})
	require.NoError(t, err)
	require.Len(t, repo.entries, maxEntries)
	require.Equal(t, 5, repo.entries[maxEntries-1].Rating)
}

func TestReportAggregates(t *testing.T) {
	repo := &memoryRepo{}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, rating := range []int{5, 4, 4, 2} {
		repo.entries = append(repo.entries, Entry{
			ID:        strings.Repeat("x", i+1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Rating:    rating,
			Options:   []string{"helpful-advice"},
		})
	}
	svc := newTestService(repo)

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, report.Summary.TotalFeedback)
	require.InDelta(t, 3.75, report.Summary.AverageRating, 0.001)
	require.Equal(t, 2, report.Summary.RatingDistribution[4])
	require.Equal(t, 1, report.Summary.RatingDistribution[5])
	require.Equal(t, 4, report.Summary.OptionCounts["helpful-advice"])
	require.Equal(t, 0, report.Summary.OptionCounts["fast-response"])

	// Newest first.
	require.Equal(t, strings.Repeat("x", 4), report.RecentFeedback[0].ID)
	require.Equal(t, "x", report.RecentFeedback[3].ID)
}

func TestOptionsLabels(t *testing.T) {
	options := Options()
	require.Len(t, options, len(Catalog))
	require.Equal(t, "easy-to-use", options[0].Value)
	require.Equal(t, "Easy To Use", options[0].Label)
	require.Equal(t, "Would Recommend", options[len(options)-1].Label)
}
