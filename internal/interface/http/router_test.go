package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"

	"github.com/rcbeall1/stylescout/internal/domain/feedback"
	"github.com/rcbeall1/stylescout/internal/domain/quota"
	"github.com/rcbeall1/stylescout/internal/domain/stylist"
	"github.com/rcbeall1/stylescout/internal/infra/config"
	"github.com/rcbeall1/stylescout/internal/infra/feedbackrepo"
	"github.com/rcbeall1/stylescout/internal/infra/imagestore"
	"github.com/rcbeall1/stylescout/internal/infra/quotarepo"
)

type stubStylist struct {
	adviseFn       func(ctx context.Context, req stylist.Request) (stylist.StyleResult, error)
	adviseStreamFn func(ctx context.Context, req stylist.Request) (<-chan stylist.ProgressEvent, error)
	outfitFn       func(ctx context.Context, req stylist.OutfitRequest) (stylist.OutfitResult, error)
}

func (s *stubStylist) Advise(ctx context.Context, req stylist.Request) (stylist.StyleResult, error) {
	if s.adviseFn != nil {
		return s.adviseFn(ctx, req)
	}
	return stylist.StyleResult{}, nil
}

func (s *stubStylist) AdviseStream(ctx context.Context, req stylist.Request) (<-chan stylist.ProgressEvent, error) {
	if s.adviseStreamFn != nil {
		return s.adviseStreamFn(ctx, req)
	}
	ch := make(chan stylist.ProgressEvent)
	close(ch)
	return ch, nil
}

func (s *stubStylist) GenerateOutfit(ctx context.Context, req stylist.OutfitRequest) (stylist.OutfitResult, error) {
	if s.outfitFn != nil {
		return s.outfitFn(ctx, req)
	}
	return stylist.OutfitResult{}, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:     ":0",
			ReadTimeout: time.Second,
		},
		Provider: config.ProviderConfig{
			Primary: "openai",
			Keys:    map[string]string{"openai": "test-key"},
		},
		Stream: config.StreamConfig{KeepaliveInterval: time.Minute},
		Admin:  config.AdminConfig{APIKey: "sesame"},
	}
}

func newServerUnderTest(t *testing.T, svc StylistService, images stylist.ImageStore, cfg *config.Config) *http.Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	if images == nil {
		images = imagestore.NewMemoryStore(5 * time.Minute)
	}
	logger := newTestLogger()
	handler := NewHandler(svc, images, cfg, logger)
	store := quota.NewStore(map[string]int{"openai": 5}, quotarepo.NewMemoryStore(), logger)
	admin := NewAdminHandler(store, cfg.Provider.Primary, logger)
	fb := NewFeedbackHandler(feedback.NewService(feedbackrepo.NewMemoryRepository(), logger), logger)
	return NewRouter(cfg, handler, admin, fb, logger)
}

func doJSON(server *http.Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Providers(t *testing.T) {
	server := newServerUnderTest(t, &stubStylist{}, nil, nil)

	rec := doJSON(server, http.MethodGet, "/api/providers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Current   string                    `json:"current"`
		Available map[string]map[string]any `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "openai", body.Current)
	require.Len(t, body.Available, 4)
	require.Equal(t, true, body.Available["openai"]["supportsImages"])
	require.Equal(t, false, body.Available["anthropic"]["supportsImages"])
}

func TestRouter_StyleAdviceSuccess(t *testing.T) {
	result := stylist.StyleResult{
		Success:  true,
		City:     "Paris",
		Season:   "summer",
		Advice:   "linen everything",
		Provider: "openai",
		OutfitImages: []stylist.OutfitImage{
			{URL: "https://images.example/1", Prompt: "p1"},
		},
	}
	svc := &stubStylist{
		adviseFn: func(ctx context.Context, req stylist.Request) (stylist.StyleResult, error) {
			require.Equal(t, "Paris", req.City)
			return result, nil
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/style-advice", `{"city":"Paris","season":"summer"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got stylist.StyleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, result, got)
}

func TestRouter_StyleAdviceValidation(t *testing.T) {
	svc := &stubStylist{
		adviseFn: func(ctx context.Context, req stylist.Request) (stylist.StyleResult, error) {
			return stylist.StyleResult{}, apperrors.Wrap("invalid_request", "City and season are required", nil)
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/style-advice", `{"city":"Paris"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "City and season are required")
}

func TestRouter_StyleAdviceQuotaDenied(t *testing.T) {
	svc := &stubStylist{
		adviseFn: func(ctx context.Context, req stylist.Request) (stylist.StyleResult, error) {
			return stylist.StyleResult{}, &quota.LimitError{
				Provider: "openai", Type: "requests", Current: 100, Limit: 100,
			}
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/style-advice", `{"city":"Paris","season":"summer"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Error   string `json:"error"`
		Details struct {
			Provider  string `json:"provider"`
			Type      string `json:"type"`
			Current   int    `json:"current"`
			Limit     int    `json:"limit"`
			ResetTime string `json:"resetTime"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Daily request limit reached", body.Error)
	require.Equal(t, "openai", body.Details.Provider)
	require.Equal(t, "requests", body.Details.Type)
	require.Equal(t, 100, body.Details.Current)
	require.Equal(t, "Midnight UTC", body.Details.ResetTime)
	require.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRouter_StyleAdviceProviderFailure(t *testing.T) {
	svc := &stubStylist{
		adviseFn: func(ctx context.Context, req stylist.Request) (stylist.StyleResult, error) {
			return stylist.StyleResult{}, apperrors.Wrap("provider_error", "upstream exploded", nil)
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/style-advice", `{"city":"Paris","season":"summer"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "openai", body["provider"])
	require.Contains(t, body["error"], "upstream exploded")
}

func TestRouter_StyleAdviceStreamFrames(t *testing.T) {
	events := []stylist.ProgressEvent{
		{Status: stylist.StatusStarting, Message: "Initializing fashion consultant..."},
		{Status: stylist.StatusAdviceComplete, Advice: "wear linen", TimeTakenMs: 1200},
		{Status: stylist.StatusComplete, Result: &stylist.StyleResult{Success: true, City: "Paris"}},
	}
	svc := &stubStylist{
		adviseStreamFn: func(ctx context.Context, req stylist.Request) (<-chan stylist.ProgressEvent, error) {
			ch := make(chan stylist.ProgressEvent, len(events))
			go func() {
				defer close(ch)
				for _, ev := range events {
					ch <- ev
				}
			}()
			return ch, nil
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/style-advice-stream", `{"city":"Paris","season":"summer"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	payload := rec.Body.String()
	require.True(t, strings.HasSuffix(payload, "event: close\ndata: \n\n"), payload)

	frames := strings.Split(strings.TrimSpace(strings.TrimSuffix(payload, "event: close\ndata: \n\n")), "\n\n")
	require.Len(t, frames, len(events))
	for i, frame := range frames {
		require.True(t, strings.HasPrefix(frame, "data: "))
		var got stylist.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &got))
		require.Equal(t, events[i].Status, got.Status)
	}
}

// brokenWriter fails every body write, mimicking a client that hung up
// mid-stream.
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *brokenWriter) WriteHeader(int) {}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

func (w *brokenWriter) Flush() {}

func TestRouter_StyleAdviceStreamStopsOnWriteFailure(t *testing.T) {
	ch := make(chan stylist.ProgressEvent, 3)
	for i := 0; i < 3; i++ {
		ch <- stylist.ProgressEvent{Status: stylist.StatusSearching}
	}
	svc := &stubStylist{
		adviseStreamFn: func(ctx context.Context, req stylist.Request) (<-chan stylist.ProgressEvent, error) {
			return ch, nil
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/style-advice-stream",
		strings.NewReader(`{"city":"Paris","season":"summer"}`))
	req.Header.Set("Content-Type", "application/json")

	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Handler.ServeHTTP(&brokenWriter{}, req)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler kept running after the connection broke")
	}
	// Only the first event was consumed before the failed write ended
	// the stream.
	require.Len(t, ch, 2)
}

func TestRouter_StyleAdviceStreamQuotaDeniedBeforeHeaders(t *testing.T) {
	svc := &stubStylist{
		adviseStreamFn: func(ctx context.Context, req stylist.Request) (<-chan stylist.ProgressEvent, error) {
			return nil, &quota.LimitError{Provider: "openai", Type: "requests", Current: 100, Limit: 100}
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/style-advice-stream", `{"city":"Paris","season":"summer"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEqual(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestRouter_GenerateOutfitUnsupported(t *testing.T) {
	svc := &stubStylist{
		outfitFn: func(ctx context.Context, req stylist.OutfitRequest) (stylist.OutfitResult, error) {
			return stylist.OutfitResult{}, apperrors.Wrap("images_unsupported", "perplexity does not support image generation. Please use OpenAI.", nil)
		},
	}
	server := newServerUnderTest(t, svc, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/generate-outfit", `{"city":"Paris","season":"summer"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "does not support image generation")
}

func TestRouter_ImageLifecycle(t *testing.T) {
	images := imagestore.NewMemoryStore(5 * time.Minute)
	require.NoError(t, images.Save(context.Background(), "1717243200-0", stylist.ImageBlob{
		Data:     []byte("png-bytes"),
		MimeType: "image/png",
	}))
	server := newServerUnderTest(t, &stubStylist{}, images, nil)

	rec := doJSON(server, http.MethodGet, "/api/image/1717243200-0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "png-bytes", rec.Body.String())

	rec = doJSON(server, http.MethodGet, "/api/image/1717243200-9", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(server, http.MethodGet, "/api/image/not-a-handle", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminRequiresKey(t *testing.T) {
	server := newServerUnderTest(t, &stubStylist{}, nil, nil)

	rec := doJSON(server, http.MethodGet, "/api/admin/usage", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(server, http.MethodGet, "/api/admin/usage", "", map[string]string{adminKeyHeader: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(server, http.MethodGet, "/api/admin/usage", "", map[string]string{adminKeyHeader: "sesame"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "providers")
}

func TestRouter_AdminUnconfiguredKey(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.APIKey = ""
	server := newServerUnderTest(t, &stubStylist{}, nil, cfg)

	rec := doJSON(server, http.MethodGet, "/api/admin/config", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Admin API key not configured")
}

func TestRouter_AdminResetFlow(t *testing.T) {
	server := newServerUnderTest(t, &stubStylist{}, nil, nil)
	auth := map[string]string{adminKeyHeader: "sesame"}

	rec := doJSON(server, http.MethodPost, "/api/admin/reset/openai", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Reset counter for openai")

	rec = doJSON(server, http.MethodPost, "/api/admin/reset-all", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "All counters reset")
}

func TestRouter_FeedbackSubmitAndReport(t *testing.T) {
	server := newServerUnderTest(t, &stubStylist{}, nil, nil)

	rec := doJSON(server, http.MethodPost, "/api/feedback/submit",
		`{"rating":5,"options":["helpful-advice"],"textFeedback":"loved it"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Thank you for your feedback!")

	rec = doJSON(server, http.MethodPost, "/api/feedback/submit", `{"rating":9}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(server, http.MethodGet, "/api/feedback/admin", "", map[string]string{adminKeyHeader: "sesame"})
	require.Equal(t, http.StatusOK, rec.Code)

	var report feedback.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 1, report.Summary.TotalFeedback)
	require.Equal(t, 1, report.Summary.OptionCounts["helpful-advice"])
}

func TestRouter_FeedbackOptions(t *testing.T) {
	server := newServerUnderTest(t, &stubStylist{}, nil, nil)

	rec := doJSON(server, http.MethodGet, "/api/feedback/options", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Easy To Use")
}

func TestRouter_PerIPRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, Window: time.Minute, MaxRequests: 2}
	server := newServerUnderTest(t, &stubStylist{}, nil, cfg)

	for i := 0; i < 2; i++ {
		rec := doJSON(server, http.MethodGet, "/api/test", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, i)
	}
	rec := doJSON(server, http.MethodGet, "/api/test", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_TestEndpoint(t *testing.T) {
	server := newServerUnderTest(t, &stubStylist{}, nil, nil)

	rec := doJSON(server, http.MethodGet, "/api/test", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string          `json:"status"`
		Provider string          `json:"provider"`
		Keys     map[string]bool `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "openai", body.Provider)
	require.True(t, body.Keys["openai"])
	require.False(t, body.Keys["anthropic"])
}
