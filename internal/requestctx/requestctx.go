package requestctx

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	tenantKey    ctxKey = "tenant"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithTenant stores the normalized tenant key the request addresses.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// GetTenant returns "" when no tenant was attached.
func GetTenant(ctx context.Context) string {
	if value, ok := ctx.Value(tenantKey).(string); ok {
		return value
	}
	return ""
}
