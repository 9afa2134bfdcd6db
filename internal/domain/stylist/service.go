package stylist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"
	"github.com/rcbeall1/stylescout/pkg/metrics"
	"github.com/rcbeall1/stylescout/pkg/util"

	"github.com/rcbeall1/stylescout/internal/domain/quota"
)

// QuotaGate is the admission surface the orchestrator needs from the quota
// store.
type QuotaGate interface {
	Check(ctx context.Context, provider, opType string) quota.Status
	Increment(ctx context.Context, provider, opType string) int
}

// Options tunes the orchestration pipeline.
type Options struct {
	// ImageCount is the number of outfit image slots per advice request.
	ImageCount int
	// TaskTimeout bounds each individual image generation call.
	TaskTimeout time.Duration
	// Stagger delays each image task by index*Stagger to spread upstream load.
	Stagger time.Duration
}

// Service orchestrates one advice request: admission, the single advice
// call, the parallel outfit image fan-out, and quota accounting.
type Service struct {
	providers ProviderSource
	quota     QuotaGate
	images    ImageStore
	estimator *metrics.Estimator
	logger    *slog.Logger
	opts      Options

	now   func() time.Time
	newID func(index int) string
}

// NewService constructs the orchestrator.
func NewService(providers ProviderSource, gate QuotaGate, images ImageStore, estimator *metrics.Estimator, logger *slog.Logger, opts Options) *Service {
	if opts.ImageCount <= 0 {
		opts.ImageCount = 3
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 60 * time.Second
	}
	svc := &Service{
		providers: providers,
		quota:     gate,
		images:    images,
		estimator: estimator,
		logger:    logger.With("component", "stylist.service"),
		opts:      opts,
		now:       util.NowUTC,
	}
	svc.newID = func(index int) string {
		return fmt.Sprintf("%d-%d", svc.now().UnixNano(), index)
	}
	return svc
}

// AdviseStream validates and admits the request synchronously, then runs the
// pipeline in the background. Events stop flowing once ctx is done but the
// pipeline itself runs to completion on a detached context so upstream calls
// are never abandoned mid-flight and accounting stays accurate.
func (s *Service) AdviseStream(ctx context.Context, req Request) (<-chan ProgressEvent, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.admit(ctx, s.providers.PrimaryKey(), quota.OpRequests); err != nil {
		return nil, err
	}

	ch := make(chan ProgressEvent)
	go func() {
		defer close(ch)
		s.run(ctx, req, ch)
	}()
	return ch, nil
}

// Advise runs the same pipeline buffered, returning only the final result.
func (s *Service) Advise(ctx context.Context, req Request) (StyleResult, error) {
	ch, err := s.AdviseStream(ctx, req)
	if err != nil {
		return StyleResult{}, err
	}

	var result *StyleResult
	var failure string
	for ev := range ch {
		switch ev.Status {
		case StatusComplete:
			result = ev.Result
		case StatusError:
			failure = ev.Error
		}
	}
	if result != nil {
		return *result, nil
	}
	if failure == "" {
		failure = "failed to get style advice"
	}
	return StyleResult{}, apperrors.Wrap("provider_error", failure, nil)
}

// GenerateOutfit produces a single outfit image on demand. Unlike the main
// pipeline it requires the primary provider itself to support images.
func (s *Service) GenerateOutfit(ctx context.Context, req OutfitRequest) (OutfitResult, error) {
	if err := validate(Request{City: req.City, Season: req.Season}); err != nil {
		return OutfitResult{}, err
	}

	primary, err := s.providers.Primary()
	if err != nil {
		return OutfitResult{}, err
	}
	if !primary.SupportsImages() {
		return OutfitResult{}, apperrors.Wrap("images_unsupported",
			fmt.Sprintf("%s does not support image generation. Please use OpenAI.", primary.Key()), nil)
	}
	if err := s.admit(ctx, primary.Key(), quota.OpImages); err != nil {
		return OutfitResult{}, err
	}

	description := req.Description
	if description == "" {
		description = "stylish and weather-appropriate outfit"
	}
	prompt := ImagePrompt(req.City, req.Season, description)

	taskCtx, cancel := context.WithTimeout(ctx, s.opts.TaskTimeout)
	defer cancel()
	ref, err := primary.GenerateImage(taskCtx, prompt)
	if err != nil {
		return OutfitResult{}, err
	}
	url, err := s.resolveImageURL(ctx, ref, 0)
	if err != nil {
		return OutfitResult{}, err
	}

	s.quota.Increment(ctx, primary.Key(), quota.OpImages)
	return OutfitResult{Success: true, ImageURL: url, Prompt: prompt}, nil
}

func validate(req Request) error {
	if req.City == "" || req.Season == "" {
		return apperrors.Wrap("invalid_request", "City and season are required", nil)
	}
	return nil
}

func (s *Service) admit(ctx context.Context, provider, opType string) error {
	status := s.quota.Check(ctx, provider, opType)
	if status.Allowed {
		return nil
	}
	return &quota.LimitError{
		Provider:  provider,
		Type:      opType,
		Current:   status.Current,
		Limit:     status.Limit,
		Remaining: status.Remaining,
	}
}

// run executes the full pipeline, emitting progress onto ch. Emission is
// best effort: once ctx is done events are discarded.
func (s *Service) run(ctx context.Context, req Request, ch chan<- ProgressEvent) {
	emit := func(ev ProgressEvent) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
	detached := context.WithoutCancel(ctx)
	primaryKey := s.providers.PrimaryKey()

	emit(ProgressEvent{Status: StatusStarting, Message: "Initializing fashion consultant..."})

	primary, err := s.providers.Primary()
	if err != nil {
		s.logger.Error("primary provider unavailable", "provider", primaryKey, "error", err)
		emit(ProgressEvent{Status: StatusError, Message: "An error occurred", Error: err.Error()})
		return
	}

	emit(ProgressEvent{Status: StatusSearching, Message: fmt.Sprintf("Searching for current weather in %s...", req.City)})

	adviceStart := s.now()
	advice, err := primary.GenerateAdvice(detached, req.City, req.Season)
	if err != nil {
		s.logger.Error("advice generation failed", "provider", primaryKey, "error", err)
		emit(ProgressEvent{Status: StatusError, Message: "An error occurred", Error: err.Error()})
		return
	}
	adviceTime := s.now().Sub(adviceStart)

	usage := s.estimator.Estimate(StylePrompt(req.City, req.Season), advice)
	s.logger.Info("advice generated",
		"provider", primaryKey,
		"durationMs", adviceTime.Milliseconds(),
		"estimatedTokens", usage.TotalTokens)

	emit(ProgressEvent{
		Status:      StatusAdviceComplete,
		Message:     "Style advice generated!",
		Advice:      advice,
		TimeTakenMs: adviceTime.Milliseconds(),
	})

	outfitImages, imageProvider := s.generateImages(detached, req, emit)

	s.quota.Increment(detached, primaryKey, quota.OpRequests)
	if len(outfitImages) > 0 {
		s.quota.Increment(detached, imageProvider, quota.OpImages)
	}

	result := StyleResult{
		Success:      true,
		City:         req.City,
		Season:       req.Season,
		Advice:       advice,
		OutfitImages: outfitImages,
		Provider:     primaryKey,
	}
	emit(ProgressEvent{Status: StatusComplete, Message: "All done!", Result: &result})
}

// generateImages fans out the fixed prompt slots and aggregates successes in
// slot order. A slot failure never fails the run.
func (s *Service) generateImages(detached context.Context, req Request, emit func(ProgressEvent)) ([]OutfitImage, string) {
	outfitImages := []OutfitImage{}

	backend, err := s.providers.ImageBackend()
	if err != nil {
		s.logger.Error("no image-capable provider available", "error", err)
		emit(ProgressEvent{Status: StatusImagesError, Message: "Could not generate outfit images", Error: err.Error()})
		return outfitImages, ""
	}

	prompts := OutfitPrompts(req.City, req.Season, s.opts.ImageCount)
	for i := range prompts {
		emit(ProgressEvent{
			Status:     StatusGeneratingImage,
			Message:    fmt.Sprintf("Creating outfit inspiration %d of %d...", i+1, len(prompts)),
			ImageIndex: indexOf(i),
		})
	}

	// emit is safe for concurrent use; emitMu keeps each event atomic with
	// its slot bookkeeping so tests can rely on event/result agreement.
	var emitMu sync.Mutex
	results := make([]*OutfitImage, len(prompts))

	g := new(errgroup.Group)
	for i, prompt := range prompts {
		g.Go(func() error {
			if s.opts.Stagger > 0 && i > 0 {
				time.Sleep(time.Duration(i) * s.opts.Stagger)
			}

			taskCtx, cancel := context.WithTimeout(detached, s.opts.TaskTimeout)
			defer cancel()

			start := s.now()
			ref, genErr := backend.GenerateImage(taskCtx, prompt)
			if genErr == nil && ref.IsData() {
				var saveErr error
				ref.URL, saveErr = s.storeBlob(detached, ref, i)
				if saveErr != nil {
					genErr = saveErr
				}
			}

			emitMu.Lock()
			defer emitMu.Unlock()
			if genErr != nil {
				s.logger.Error("outfit image failed", "index", i, "error", genErr)
				emit(ProgressEvent{
					Status:     StatusImageFailed,
					Message:    fmt.Sprintf("Couldn't generate outfit %d: %s", i+1, genErr.Error()),
					ImageIndex: indexOf(i),
					Error:      genErr.Error(),
				})
				return nil
			}
			emit(ProgressEvent{
				Status:      StatusImageComplete,
				Message:     fmt.Sprintf("Outfit %d created!", i+1),
				ImageIndex:  indexOf(i),
				ImageURL:    ref.URL,
				TimeTakenMs: s.now().Sub(start).Milliseconds(),
			})
			results[i] = &OutfitImage{URL: ref.URL, Prompt: prompt}
			return nil
		})
	}
	_ = g.Wait()

	for _, img := range results {
		if img != nil {
			outfitImages = append(outfitImages, *img)
		}
	}
	return outfitImages, backend.Key()
}

// resolveImageURL converts a provider result into a client-facing URL,
// storing embedded blobs under a transient handle.
func (s *Service) resolveImageURL(ctx context.Context, ref ImageRef, index int) (string, error) {
	if !ref.IsData() {
		return ref.URL, nil
	}
	return s.storeBlob(ctx, ref, index)
}

func (s *Service) storeBlob(ctx context.Context, ref ImageRef, index int) (string, error) {
	id := s.newID(index)
	blob := ImageBlob{Data: ref.Data, MimeType: ref.MimeType, StoredAt: s.now()}
	if err := s.images.Save(ctx, id, blob); err != nil {
		return "", fmt.Errorf("store generated image: %w", err)
	}
	return "/api/image/" + id, nil
}
