package authkeep

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Sessions created under ctx
// record it as the "ip" metadata entry.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent to ctx. Sessions record it as
// "userAgent".
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func sessionMetadata(ctx context.Context) map[string]string {
	meta := make(map[string]string, 2)
	if ip := clientIPFromContext(ctx); ip != "" {
		meta["ip"] = ip
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		meta["userAgent"] = ua
	}
	return meta
}
