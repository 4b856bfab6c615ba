package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"mdms/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack, zero values pick defaults
type StackOptions struct {
	CORS    middleware.CORSOptions
	Timeout time.Duration
	Slow    time.Duration
}

// CommonStack returns the baseline middleware slice mounted on /api/v1
// order matters: the request id must exist before the logger reads it
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.Slow <= 0 {
		o.Slow = 2 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RequestLogger(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.Slow}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(o.CORS),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}
