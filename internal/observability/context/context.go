package context

import (
	"context"
	"strings"
)

type contextKey string

const (
	requestIDKey contextKey = "observability.request_id"
	companyIDKey contextKey = "observability.company_id"
	actorTypeKey contextKey = "observability.actor_type"
	actorIDKey   contextKey = "observability.actor_id"
)

// WithRequestID stores the request correlation identifier.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDKey)
}

// WithCompanyID stores the company scope of the request.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyIDKey, strings.TrimSpace(companyID))
}

// CompanyIDFromContext returns the company scope, if any.
func CompanyIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, companyIDKey)
}

// WithActor stores the authenticated actor.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, strings.TrimSpace(actorType))
	return context.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
}

// ActorFromContext returns the actor type and identifier, if any.
func ActorFromContext(ctx context.Context) (string, string) {
	return stringFromContext(ctx, actorTypeKey), stringFromContext(ctx, actorIDKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
