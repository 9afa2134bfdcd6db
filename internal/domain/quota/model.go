package quota

import "fmt"

// Operation types gated by the store.
const (
	OpRequests = "requests"
	OpImages   = "images"
)

// Key maps a (provider, operation-type) pair to its counter key. Image
// operations live under a dedicated namespace so text and image budgets
// never share a counter.
func Key(provider, opType string) string {
	if opType == OpImages {
		return provider + "-images"
	}
	return provider
}

// Status is the result of an admission check.
type Status struct {
	Allowed   bool
	Current   int
	Limit     int
	Remaining int
}

// KeyUsage reports one counter for the admin usage endpoint.
type KeyUsage struct {
	Requests    int `json:"requests"`
	Limit       int `json:"limit"`
	Remaining   int `json:"remaining"`
	PercentUsed int `json:"percentUsed"`
}

// Usage is the date-stamped snapshot of every counter.
type Usage struct {
	Date      string              `json:"date"`
	Providers map[string]KeyUsage `json:"providers"`
}

// LimitError signals a denied admission and carries the figures the
// transport needs to render a precise 429 payload.
type LimitError struct {
	Provider  string
	Type      string
	Current   int
	Limit     int
	Remaining int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily %s limit reached for %s: %d/%d", e.Type, e.Provider, e.Current, e.Limit)
}
