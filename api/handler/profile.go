package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/api/transport"
	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/pkg/httpcontext"
	profileUC "github.com/fastygo/taskmaster/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	user, ok := h.sessionUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	profile, err := h.uc.GetProfile(stdCtx, user.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, profile)
}

// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile [patch]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	user, ok := h.sessionUser(ctx)
	if !ok {
		return
	}

	var patch domain.ProfilePatch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProfile(stdCtx, user.ID, patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary List accounts
// @Tags users
// @Router /api/v1/users [get]
func (h *ProfileHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondSuccess(ctx, http.StatusOK, h.uc.ListUsers(stdCtx))
}

// @Summary Get account
// @Tags users
// @Router /api/v1/users/{id} [get]
func (h *ProfileHandler) GetUser(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetUser(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary List notifications of the session user
// @Tags notifications
// @Router /api/v1/notifications [get]
func (h *ProfileHandler) Notifications(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.Notifications(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NotificationsResponse{
		Items:  items,
		Unread: h.uc.UnreadCount(stdCtx),
	})
}

// @Summary Add notification
// @Tags notifications
// @Router /api/v1/notifications [post]
func (h *ProfileHandler) AddNotification(ctx *fasthttp.RequestCtx) {
	var in domain.NotificationInput
	if !h.decode(ctx, &in) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	n, err := h.uc.AddNotification(stdCtx, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, n)
}

// @Summary Mark notification read
// @Tags notifications
// @Router /api/v1/notifications/{id}/read [post]
func (h *ProfileHandler) MarkRead(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.MarkNotificationRead(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.CountResponse{Count: h.uc.UnreadCount(stdCtx)})
}

// @Summary Mark every notification read
// @Tags notifications
// @Router /api/v1/notifications/read [put]
func (h *ProfileHandler) MarkAllRead(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.MarkAllNotificationsRead(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.CountResponse{Count: 0})
}

// @Summary Delete notification
// @Tags notifications
// @Router /api/v1/notifications/{id} [delete]
func (h *ProfileHandler) DeleteNotification(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteNotification(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
