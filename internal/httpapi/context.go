package httpapi

import (
	"context"
	"net/http"
	"time"
)

// serverBaseCtx is canceled on process shutdown. Defaults to Background.
var serverBaseCtx = context.Background()

// generateTimeout bounds /generate and /translate; zero disables it.
var generateTimeout time.Duration

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// SetGenerateTimeout bounds generation requests. d <= 0 disables the bound.
func SetGenerateTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	generateTimeout = d
}

// requestContext joins r's context with the server base context so shutdown
// cancels in-flight work. bounded applies the generate timeout.
func requestContext(r *http.Request, bounded bool) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if !bounded || generateTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, generateTimeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

// clientGone reports whether the caller or the server went away, in which
// case no response is written.
func clientGone(r *http.Request) bool {
	return r.Context().Err() != nil || serverBaseCtx.Err() != nil
}

// joinContexts returns a context canceled when either a or b is done. The
// cancel func must be called to release the watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
