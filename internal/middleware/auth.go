package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/api/transport"
	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/pkg/httpcontext"
)

// LoginPath is where unauthenticated callers are sent.
const LoginPath = "/login"

// SessionSource exposes the active session user.
type SessionSource interface {
	Current() (domain.User, bool)
}

// SessionAuth admits a request only when its bearer token names the user of the active session.
// Rejected requests get a 401 envelope carrying the login redirect and the requested path.
func SessionAuth(tokens *TokenIssuer, sessions SessionSource, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing session token")
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				logger.Warn("invalid session token", zap.Error(err))
				unauthorized(ctx, "invalid session token")
				return
			}

			user, ok := sessions.Current()
			if !ok || user.ID != claims.UserID {
				logger.Info("token does not match active session", zap.String("user_id", claims.UserID))
				unauthorized(ctx, "no active session")
				return
			}

			ctx.Request.Header.Set("X-User-ID", user.ID)
			httpcontext.SetUser(ctx, user)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	meta := map[string]string{
		"redirect": LoginPath,
		"from":     string(ctx.Path()),
	}
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message, meta))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
