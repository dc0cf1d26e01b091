package correlation

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

type correlationKey struct{}

// payloadKeys are the fields a device may echo back from a command it acted on.
var payloadKeys = []string{"correlation_id", "request_id"}

// ExtractCorrelationID fetches a correlation ID from the context if present.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithCorrelationID sets the correlation ID onto the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating one when missing.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	cid := ExtractCorrelationID(ctx)
	if cid == "" {
		cid = ulid.Make().String()
	}
	return ContextWithCorrelationID(ctx, cid), cid
}

// FromPayload returns the first non-empty correlation field of a decoded message.
func FromPayload(data map[string]any) string {
	for _, key := range payloadKeys {
		if v, ok := data[key].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// ContextForMessage tags an inbound message. A correlation id echoed by the
// device wins over fallback.
func ContextForMessage(ctx context.Context, data map[string]any, fallback string) (context.Context, string) {
	cid := FromPayload(data)
	if cid == "" {
		cid = fallback
	}
	return ContextWithCorrelationID(ctx, cid), cid
}
