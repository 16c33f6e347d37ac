package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskmaster/domain"
)

func TestAttach(t *testing.T) {
	t.Run("propagates request id", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		rc.Request.Header.Set("X-Request-ID", "req-1")
		rc.Request.Header.SetUserAgent("tests")

		ctx, cancel := NewAdapter(time.Second).Attach(&rc)
		defer cancel()

		assert.Equal(t, "req-1", string(rc.Response.Header.Peek("X-Request-ID")))
		assert.Equal(t, "tests", ctx.Value(KeyUserAgent))
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
	})

	t.Run("generates request id", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		_, cancel := NewAdapter(0).Attach(&rc)
		defer cancel()

		assert.NotEmpty(t, string(rc.Response.Header.Peek("X-Request-ID")))
	})
}

func TestSessionUser(t *testing.T) {
	var rc fasthttp.RequestCtx
	_, ok := User(&rc)
	assert.False(t, ok)

	SetUser(&rc, domain.User{ID: "u1", Email: "ana@x.com"})
	user, ok := User(&rc)
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}
