package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"

	"github.com/rcbeall1/stylescout/internal/domain/feedback"
)

// FeedbackService is the domain surface the feedback routes consume.
type FeedbackService interface {
	Submit(ctx context.Context, sub feedback.Submission) (feedback.Entry, error)
	Report(ctx context.Context) (feedback.Report, error)
}

// FeedbackHandler exposes feedback collection and reporting.
type FeedbackHandler struct {
	svc    FeedbackService
	logger *slog.Logger
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(svc FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, logger: logger.With("component", "http.feedback")}
}

// Submit stores one feedback entry.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var sub feedback.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback payload"})
		return
	}
	sub.IP = c.ClientIP()
	if sub.UserAgent == "" {
		sub.UserAgent = c.Request.UserAgent()
	}

	if _, err := h.svc.Submit(c.Request.Context(), sub); err != nil {
		if apperrors.IsCode(err, "invalid_request") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("feedback submit failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save feedback"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Thank you for your feedback!"})
}

// Options returns the selectable feedback options with display labels.
func (h *FeedbackHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"options": feedback.Options()})
}

// Report returns summary statistics and the most recent entries.
func (h *FeedbackHandler) Report(c *gin.Context) {
	report, err := h.svc.Report(c.Request.Context())
	if err != nil {
		h.logger.Error("feedback report failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read feedback"})
		return
	}
	c.JSON(http.StatusOK, report)
}
