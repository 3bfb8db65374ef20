package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/station-gourmet/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        newEngine(cfg, handler),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func newEngine(cfg *config.Config, handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
		recoveryMiddleware(),
		corsMiddleware(cfg.HTTP.CORSOrigins),
	)

	router.GET("/healthz", handler.Health)

	recommend := []gin.HandlerFunc{
		requestTimeoutMiddleware(cfg.HTTP.RequestTimeout),
		allowMethod(http.MethodPost),
		handler.Recommend,
	}
	router.Any("/api/v1/recommendations", recommend...)
	// Alias for existing chat widget clients.
	router.Any("/api/recommend", recommend...)

	return router
}
