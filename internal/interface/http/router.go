package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcbeall1/stylescout/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, admin *AdminHandler, fb *FeedbackHandler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	api := router.Group("/api")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, logger))
	{
		api.GET("/providers", handler.Providers)
		api.POST("/style-advice", handler.StyleAdvice)
		api.POST("/style-advice-stream", handler.StyleAdviceStream)
		api.POST("/generate-outfit", handler.GenerateOutfit)
		api.GET("/image/:id", handler.Image)
		api.GET("/test", handler.Test)

		adminGroup := api.Group("/admin", adminAuthMiddleware(cfg.Admin.APIKey))
		{
			adminGroup.GET("/usage", admin.Usage)
			adminGroup.POST("/reset/:provider", admin.ResetProvider)
			adminGroup.POST("/reset-all", admin.ResetAll)
			adminGroup.GET("/config", admin.Config)
		}

		feedbackGroup := api.Group("/feedback")
		{
			feedbackGroup.POST("/submit", fb.Submit)
			feedbackGroup.GET("/options", fb.Options)
			feedbackGroup.GET("/admin", adminAuthMiddleware(cfg.Admin.APIKey), fb.Report)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
