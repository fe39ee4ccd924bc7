package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/refcheck/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so runs
// record who triggered them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// clientIP returns the host part of r.RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
