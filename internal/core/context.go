package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "run_ip"
	ctxKeyUserAgent contextKey = "run_ua"
	ctxKeyTrigger   contextKey = "run_trigger"
)

// ContextWithIPAddress adds the requester IP to context.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the requester User-Agent to context.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ContextWithTrigger names a non-HTTP trigger ("scheduler", "cli").
func ContextWithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, ctxKeyTrigger, trigger)
}

// GetIPAddressFromContext extracts the requester IP from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts the requester User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// TriggeredByFromContext describes who started a run, recorded with its result.
func TriggeredByFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTrigger).(string); ok && v != "" {
		return v
	}
	ip := GetIPAddressFromContext(ctx)
	ua := GetUserAgentFromContext(ctx)
	switch {
	case ip != "" && ua != "":
		return ip + " (" + ua + ")"
	case ip != "":
		return ip
	default:
		return ua
	}
}
