package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/api/transport"
	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/pkg/httpcontext"
	authUC "github.com/fastygo/taskmaster/usecase/auth"
)

// TokenIssuer signs session tokens for a signed-in user.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

type AuthHandler struct {
	baseHandler
	uc     *authUC.UseCase
	tokens TokenIssuer
}

func NewAuthHandler(uc *authUC.UseCase, tokens TokenIssuer, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		tokens:      tokens,
	}
}

// @Summary Register an account and sign it in
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, authUC.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, http.StatusCreated, *user)
}

// @Summary Sign in with email and password
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Authenticate(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, http.StatusOK, *user)
}

// @Summary End the active session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.uc.State())
}

// @Summary Report the session state
// @Tags auth
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.uc.State())
}

// @Summary Delete the signed-in account
// @Tags profile
// @Router /api/v1/profile [delete]
func (h *AuthHandler) DeleteAccount(ctx *fasthttp.RequestCtx) {
	user, ok := h.sessionUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteUser(stdCtx, user.ID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.log(stdCtx).Info("account deleted")
	h.respondSuccess(ctx, http.StatusOK, h.uc.State())
}

func (h *AuthHandler) respondSession(ctx *fasthttp.RequestCtx, status int, user domain.User) {
	token, expires, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "issue session token", err))
		return
	}
	h.respondSuccess(ctx, status, transport.SessionResponse{User: user, Token: token, ExpiresAt: expires})
}
