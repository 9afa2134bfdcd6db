package feedback

import "time"

// Catalog is the closed set of selectable feedback options.
var Catalog = []string{
	"easy-to-use",
	"helpful-advice",
	"accurate-weather",
	"good-outfit-ideas",
	"fast-response",
	"needs-more-detail",
	"outfit-images-helpful",
	"would-recommend",
}

// Entry is one stored feedback record.
type Entry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Rating       int       `json:"rating"`
	Options      []string  `json:"options"`
	TextFeedback string    `json:"textFeedback"`
	UserAgent    string    `json:"userAgent"`
	IP           string    `json:"ip"`
}

// Submission is the incoming payload before validation and sanitization.
type Submission struct {
	Rating       int      `json:"rating"`
	Options      []string `json:"options"`
	TextFeedback string   `json:"textFeedback"`
	UserAgent    string   `json:"userAgent"`
	IP           string   `json:"-"`
}

// Option pairs a catalog value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Summary aggregates all stored feedback for the admin report.
type Summary struct {
	TotalFeedback      int            `json:"totalFeedback"`
	AverageRating      float64        `json:"averageRating"`
	RatingDistribution map[int]int    `json:"ratingDistribution"`
	OptionCounts       map[string]int `json:"optionCounts"`
}

// Report is the admin view: summary stats plus the most recent entries,
// newest first.
type Report struct {
	Summary         Summary  `json:"summary"`
	RecentFeedback  []Entry  `json:"recentFeedback"`
	FeedbackOptions []string `json:"feedbackOptions"`
}
