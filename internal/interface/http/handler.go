package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/station-gourmet/internal/domain/gourmet"
	apperrors "github.com/yanqian/station-gourmet/pkg/errors"
	applog "github.com/yanqian/station-gourmet/pkg/logger"
)

// Handler wires the HTTP transport to the recommendation service.
type Handler struct {
	svc    gourmet.Service
	logger *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc gourmet.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: applog.Component(logger, "http.handler"),
	}
}

// Recommend turns a free text query into a chat style reply.
func (h *Handler) Recommend(c *gin.Context) {
	var req gourmet.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "body must be a JSON object with a string field \"text\"", err))
		return
	}

	resp, err := h.svc.Recommend(c.Request.Context(), req)
	if err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeInvalidInput):
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", apperrors.MessageOf(err), err))
		case apperrors.IsCode(err, apperrors.CodeConfigMissing):
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "config_missing", apperrors.MessageOf(err), err))
		default:
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "internal_error", errMessage(err), err))
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
