package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	. "github.com/lutheralien/to-do-api/internal/adapter/http/helper"
	"github.com/lutheralien/to-do-api/internal/core/model/response"
	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/pkg/config"
)

const (
	MsgServiceHealthy     = "Service is healthy"
	MsgServiceUnavailable = "Service is unavailable"

	healthCheckTimeout = 2 * time.Second
)

type HealthHandler struct {
	store  port.HealthChecker
	Logger *config.LokiLogger
}

func NewHealthHandler(store port.HealthChecker, logger *config.LokiLogger) *HealthHandler {
	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &HealthHandler{
		store:  store,
		Logger: logger,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.Logger.WarnWithTrace(ctx, "Health check failed", zap.Error(err))

		c.JSON(http.StatusServiceUnavailable, response.NewEnvelope(
			false,
			response.HealthResponse{Status: "unavailable", Store: "unreachable"},
			http.StatusServiceUnavailable,
			MsgServiceUnavailable,
		))
		return
	}

	SendSuccess(c, http.StatusOK, response.HealthResponse{Status: "ok", Store: "reachable"}, MsgServiceHealthy)
}
