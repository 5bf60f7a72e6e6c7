package httpapi

import (
	"context"
	"net/http"
	"time"
)

// serverBaseCtx is canceled when the process begins shutting down. In-flight
// supervisor calls derived from it stop with the server.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level context. Nil restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a child of b that is also canceled when a is done.
// The cancel func must be called to release the link to a.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(b)
	stop := context.AfterFunc(a, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// handlerContext is the context for a supervisor call made on behalf of r.
// It ends when the client goes away, on shutdown, or after timeout when
// timeout is positive.
func handlerContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if timeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

// abandoned reports whether nobody is left to read a response for r.
func abandoned(r *http.Request) bool {
	return r.Context().Err() != nil || serverBaseCtx.Err() != nil
}
