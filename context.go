package credgate

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine copies
// it onto audit events so operators can correlate failures by origin.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
