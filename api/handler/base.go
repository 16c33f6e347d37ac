package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/api/transport"
	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/pkg/httpcontext"
	appLogger "github.com/fastygo/taskmaster/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.String("code", code),
			zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

func (h baseHandler) invalidPayload(ctx *fasthttp.RequestCtx) {
	h.respondError(ctx, domain.ErrInvalidPayload)
}

// decode unmarshals the request body into dest and answers 400 on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dest interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dest); err != nil {
		h.invalidPayload(ctx)
		return false
	}
	return true
}

// sessionUser returns the user bound by the session middleware, answering 401 when absent.
func (h baseHandler) sessionUser(ctx *fasthttp.RequestCtx) (domain.User, bool) {
	user, ok := httpcontext.User(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrUnauthorized)
	}
	return user, ok
}

func (h baseHandler) log(ctx context.Context) *zap.Logger {
	return appLogger.FromContext(ctx, h.logger)
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeDuplicateEmail):
		return http.StatusConflict, string(domain.ErrCodeDuplicateEmail)
	case domain.IsDomainError(err, domain.ErrCodeStorage):
		return http.StatusServiceUnavailable, string(domain.ErrCodeStorage)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
