package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcbeall1/stylescout/internal/domain/quota"
)

const adminKeyHeader = "X-Admin-Key"

// AdminHandler exposes quota inspection and reset operations.
type AdminHandler struct {
	store           *quota.Store
	currentProvider string
	logger          *slog.Logger
}

// NewAdminHandler constructs the admin handler.
func NewAdminHandler(store *quota.Store, currentProvider string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:           store,
		currentProvider: currentProvider,
		logger:          logger.With("component", "http.admin"),
	}
}

// adminAuthMiddleware gates /api/admin behind a shared key. A missing server
// side key is a deployment fault, not an auth failure.
func adminAuthMiddleware(configuredKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if configuredKey == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Admin API key not configured"})
			return
		}
		provided := c.GetHeader(adminKeyHeader)
		if provided == "" {
			provided = c.Query("admin_key")
		}
		if provided != configuredKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// Usage returns the current day's counters.
func (h *AdminHandler) Usage(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Usage(c.Request.Context()))
}

// ResetProvider zeroes one counter key.
func (h *AdminHandler) ResetProvider(c *gin.Context) {
	key := c.Param("provider")
	h.store.ResetProvider(c.Request.Context(), key)
	h.logger.Info("quota counter reset", "key", key)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reset counter for " + key})
}

// ResetAll zeroes every counter.
func (h *AdminHandler) ResetAll(c *gin.Context) {
	h.store.ResetAll(c.Request.Context())
	h.logger.Info("all quota counters reset")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All counters reset"})
}

// Config reports the configured limits and endpoints.
func (h *AdminHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"limits":          h.store.Limits(),
		"currentProvider": h.currentProvider,
		"adminEndpoints": gin.H{
			"usage":         "GET /api/admin/usage",
			"resetProvider": "POST /api/admin/reset/:provider",
			"resetAll":      "POST /api/admin/reset-all",
			"config":        "GET /api/admin/config",
		},
	})
}
