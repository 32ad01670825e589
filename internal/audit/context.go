// Package audit implements the audit-trail core: request-scoped actor
// context, field-level change diffing, the mutation interceptor that
// records audit entries, and the fail-safe explicit logging facade.
package audit

import (
	"context"

	"github.com/auditgate/auditgate/internal/model"
)

// Actor, request metadata, correlation id and the suppression flag travel
// on the request context. State is scoped to one execution unit by
// construction: deriving a child context never mutates the parent, and the
// whole chain dies with the request.
type contextKey int

const (
	actorKey contextKey = iota
	requestMetaKey
	correlationKey
	disabledKey
	rawLoadKey
)

// RequestMeta carries the inbound request attributes relevant to auditing.
type RequestMeta struct {
	IP        string
	UserAgent string
	Method    string
	Path      string
}

func WithActor(ctx context.Context, actor *model.User) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the current actor, or nil when the context carries none.
func ActorFrom(ctx context.Context) *model.User {
	actor, _ := ctx.Value(actorKey).(*model.User)
	return actor
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

func RequestMetaFrom(ctx context.Context) *RequestMeta {
	meta, _ := ctx.Value(requestMetaKey).(*RequestMeta)
	return meta
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// WithLoggingDisabled suppresses audit recording for everything running
// under the returned context. The previous state is restored by simply
// continuing to use the parent context.
func WithLoggingDisabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, disabledKey, true)
}

func LoggingDisabled(ctx context.Context) bool {
	disabled, _ := ctx.Value(disabledKey).(bool)
	return disabled
}

// WithRawLoad marks writes replayed from fixtures or bulk imports, which
// the interceptor ignores.
func WithRawLoad(ctx context.Context) context.Context {
	return context.WithValue(ctx, rawLoadKey, true)
}

func RawLoad(ctx context.Context) bool {
	raw, _ := ctx.Value(rawLoadKey).(bool)
	return raw
}
