package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/api/transport"
	"github.com/fastygo/taskmaster/internal/infrastructure/monitor"
	"github.com/fastygo/taskmaster/pkg/httpcontext"
)

// StatusReporter exposes the last observed storage health.
type StatusReporter interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusReporter
	session func() bool
}

func NewHealthHandler(mon StatusReporter, authenticated func() bool, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	if authenticated == nil {
		authenticated = func() bool { return false }
	}
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		session:     authenticated,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp":     time.Now().UTC(),
		"storage":       status,
		"authenticated": h.session(),
	}

	if status.Storage {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "storage unavailable", payload))
}
