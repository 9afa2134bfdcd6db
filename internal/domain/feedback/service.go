package feedback

import (
	"context"
	"html"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"
	"github.com/rcbeall1/stylescout/pkg/util"
)

const (
	// maxEntries caps stored feedback so the backing file never grows
	// unbounded. Oldest entries are dropped first.
	maxEntries = 1000
	maxTextLen = 500
	recentSize = 50
)

// Repository persists feedback entries. Backends live in
// internal/infra/feedbackrepo.
type Repository interface {
	Add(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	// Trim drops the oldest entries until at most keep remain.
	Trim(ctx context.Context, keep int) error
}

// Service validates, sanitizes, and stores user feedback.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the feedback service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With("component", "feedback.service"),
		now:    util.NowUTC,
	}
}

// Submit validates and stores one feedback entry. Unknown options are
// rejected outright rather than silently filtered.
func (s *Service) Submit(ctx context.Context, sub Submission) (Entry, error) {
	var problems []string
	if sub.Rating < 1 || sub.Rating > 5 {
		problems = append(problems, "Rating must be between 1 and 5")
	}
	for _, opt := range sub.Options {
		if !isCatalogOption(opt) {
			problems = append(problems, "Invalid feedback options selected")
			break
		}
	}
	if len(sub.TextFeedback) > maxTextLen {
		problems = append(problems, "Text feedback must be less than 500 characters")
	}
	if len(problems) > 0 {
		return Entry{}, apperrors.Wrap("invalid_request", strings.Join(problems, ", "), nil)
	}

	now := s.now()
	entry := Entry{
		ID:           uuid.NewString(),
		Timestamp:    now,
		Rating:       sub.Rating,
		Options:      sub.Options,
		TextFeedback: sanitizeText(sub.TextFeedback),
		UserAgent:    sanitizeText(sub.UserAgent),
		IP:           sub.IP,
	}
	if entry.Options == nil {
		entry.Options = []string{}
	}
	if entry.IP == "" {
		entry.IP = "unknown"
	}

	if err := s.repo.Add(ctx, entry); err != nil {
		return Entry{}, apperrors.Wrap("storage_error", "failed to save feedback", err)
	}
	if err := s.repo.Trim(ctx, maxEntries); err != nil {
		s.logger.Warn("feedback trim failed", "error", err)
	}
	return entry, nil
}

// Report builds the admin summary over every stored entry.
func (s *Service) Report(ctx context.Context) (Report, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return Report{}, apperrors.Wrap("storage_error", "failed to read feedback", err)
	}

	summary := Summary{
		TotalFeedback:      len(entries),
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		OptionCounts:       map[string]int{},
	}
	for _, opt := range Catalog {
		summary.OptionCounts[opt] = 0
	}

	var ratingSum int
	for _, entry := range entries {
		ratingSum += entry.Rating
		if entry.Rating >= 1 && entry.Rating <= 5 {
			summary.RatingDistribution[entry.Rating]++
		}
		for _, opt := range entry.Options {
			if _, ok := summary.OptionCounts[opt]; ok {
				summary.OptionCounts[opt]++
			}
		}
	}
	if len(entries) > 0 {
		avg := float64(ratingSum) / float64(len(entries))
		summary.AverageRating = math.Round(avg*100) / 100
	}

	recent := entries
	if len(recent) > recentSize {
		recent = recent[len(recent)-recentSize:]
	}
	reversed := make([]Entry, len(recent))
	for i, entry := range recent {
		reversed[len(recent)-1-i] = entry
	}

	return Report{
		Summary:         summary,
		RecentFeedback:  reversed,
		FeedbackOptions: Catalog,
	}, nil
}

// Options returns the catalog with human readable labels for the frontend.
func Options() []Option {
	options := make([]Option, 0, len(Catalog))
	for _, value := range Catalog {
		words := strings.Split(value, "-")
		for i, word := range words {
			if word != "" {
				words[i] = strings.ToUpper(word[:1]) + word[1:]
			}
		}
		options = append(options, Option{Value: value, Label: strings.Join(words, " ")})
	}
	return options
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// sanitizeText strips markup and escapes the rest so stored feedback is safe
// to render anywhere.
func sanitizeText(text string) string {
	if text == "" {
		return ""
	}
	sanitized := tagPattern.ReplaceAllString(text, "")
	sanitized = html.EscapeString(sanitized)
	if len(sanitized) > maxTextLen {
		sanitized = sanitized[:maxTextLen]
	}
	sanitized = strings.ReplaceAll(sanitized, "\x00", "")
	return strings.TrimSpace(sanitized)
}

func isCatalogOption(value string) bool {
	for _, opt := range Catalog {
		if opt == value {
			return true
		}
	}
	return false
}
