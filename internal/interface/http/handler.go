package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"

	"github.com/rcbeall1/stylescout/internal/domain/quota"
	"github.com/rcbeall1/stylescout/internal/domain/stylist"
	"github.com/rcbeall1/stylescout/internal/infra/config"
	"github.com/rcbeall1/stylescout/internal/infra/provider"
)

// StylistService is the orchestrator surface the transport consumes.
type StylistService interface {
	Advise(ctx context.Context, req stylist.Request) (stylist.StyleResult, error)
	AdviseStream(ctx context.Context, req stylist.Request) (<-chan stylist.ProgressEvent, error)
	GenerateOutfit(ctx context.Context, req stylist.OutfitRequest) (stylist.OutfitResult, error)
}

// Handler wires the HTTP transport to the stylist domain.
type Handler struct {
	stylistSvc StylistService
	images     stylist.ImageStore
	cfg        *config.Config
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc StylistService, images stylist.ImageStore, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		stylistSvc: svc,
		images:     images,
		cfg:        cfg,
		logger:     logger.With("component", "http.handler"),
	}
}

// Providers lists the selectable backends and the configured one.
func (h *Handler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current":   h.cfg.Provider.Primary,
		"available": provider.Catalog(),
	})
}

// StyleAdvice handles the buffered advice endpoint.
func (h *Handler) StyleAdvice(c *gin.Context) {
	var req stylist.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "City and season are required"})
		return
	}

	result, err := h.stylistSvc.Advise(c.Request.Context(), req)
	if err != nil {
		h.renderAdviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StyleAdviceStream streams pipeline progress using Server-Sent Events.
// Validation and quota admission happen before the stream commits, so those
// failures are still real HTTP statuses.
func (h *Handler) StyleAdviceStream(c *gin.Context) {
	var req stylist.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "City and season are required"})
		return
	}

	events, err := h.stylistSvc.AdviseStream(c.Request.Context(), req)
	if err != nil {
		h.renderAdviceError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	writeFrame := func(ev stylist.ProgressEvent) error {
		payload, marshalErr := json.Marshal(ev)
		if marshalErr != nil {
			h.logger.Error("marshal progress event failed", "error", marshalErr)
			return nil
		}
		if _, err := c.Writer.Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := c.Writer.Write(payload); err != nil {
			return err
		}
		if _, err := c.Writer.Write([]byte("\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	keepalives := keepaliveMessages(req.City, req.Season)
	nextKeepalive := 0
	ticker := time.NewTicker(h.cfg.Stream.KeepaliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case ev, open := <-events:
			if !open {
				if _, err := c.Writer.Write([]byte("event: close\ndata: \n\n")); err == nil {
					flusher.Flush()
				}
				return
			}
			if err := writeFrame(ev); err != nil {
				return
			}
			ticker.Reset(h.cfg.Stream.KeepaliveInterval)
		case <-ticker.C:
			if err := writeFrame(stylist.ProgressEvent{
				Status:  stylist.StatusKeepalive,
				Message: keepalives[nextKeepalive%len(keepalives)],
			}); err != nil {
				return
			}
			nextKeepalive++
		case <-ctx.Done():
			return
		}
	}
}

// GenerateOutfit handles the single on-demand outfit image endpoint.
func (h *Handler) GenerateOutfit(c *gin.Context) {
	var req stylist.OutfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "City and season are required"})
		return
	}

	result, err := h.stylistSvc.GenerateOutfit(c.Request.Context(), req)
	if err != nil {
		var limitErr *quota.LimitError
		switch {
		case asLimitError(err, &limitErr):
			renderLimitError(c, limitErr)
		case apperrors.IsCode(err, "invalid_request"), apperrors.IsCode(err, "images_unsupported"):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("outfit generation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate outfit image"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

var imageIDPattern = regexp.MustCompile(`^\d+-\d+$`)

// Image serves a stored outfit image by transient handle.
func (h *Handler) Image(c *gin.Context) {
	id := c.Param("id")
	if !imageIDPattern.MatchString(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
		return
	}

	blob, ok, err := h.images.Fetch(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("image fetch failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load image"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found or expired"})
		return
	}
	if len(blob.Data) == 0 || blob.MimeType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stored image is malformed"})
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, blob.MimeType, blob.Data)
}

// Test reports service health and which upstream keys are configured.
func (h *Handler) Test(c *gin.Context) {
	keys := gin.H{}
	for _, name := range config.KnownProviders {
		keys[name] = h.cfg.Provider.Keys[name] != ""
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"provider":  h.cfg.Provider.Primary,
		"keys":      keys,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) renderAdviceError(c *gin.Context, err error) {
	var limitErr *quota.LimitError
	switch {
	case asLimitError(err, &limitErr):
		renderLimitError(c, limitErr)
	case apperrors.IsCode(err, "invalid_request"):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("style advice failed", "provider", h.cfg.Provider.Primary, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    err.Error(),
			"provider": h.cfg.Provider.Primary,
		})
	}
}

func asLimitError(err error, target **quota.LimitError) bool {
	return errors.As(err, target)
}

// keepaliveMessages is the rotating copy shown while the pipeline is quiet.
func keepaliveMessages(city, season string) []string {
	return []string{
		fmt.Sprintf("Finding trending stores and boutiques in %s...", city),
		"Checking local Instagram fashion accounts...",
		fmt.Sprintf("Analyzing current fashion trends for %s...", season),
		"Reviewing weather patterns and humidity levels...",
		"Researching local price ranges and deals...",
		"Creating your personalized style guide...",
		"Finalizing recommendations...",
		"Almost there, adding final touches...",
		"Double-checking local insights...",
		"Compiling your complete style guide...",
	}
}
