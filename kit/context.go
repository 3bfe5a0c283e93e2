package kit

import "context"

type contextKey string

const (
	// TransportKey records which surface served the call: "http" or "mcp".
	TransportKey contextKey = "kit_transport"
	// RequestIDKey carries the chi request id, or empty for MCP calls.
	RequestIDKey contextKey = "kit_request_id"
	// SessionIDKey carries the outline session a build or lookup runs in.
	SessionIDKey contextKey = "kit_session_id"
)

// WithTransport tags ctx with the surface serving the call.
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport returns the surface tag, "http" when none was set.
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// WithSessionID scopes ctx to one outline session so that render logs can
// be tied back to it.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

// GetSessionID returns the outline session of ctx, or "" outside one.
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}
