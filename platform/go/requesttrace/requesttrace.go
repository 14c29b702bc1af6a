package requesttrace

import (
	"context"
	"errors"

	"github.com/google/uuid"

	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
)

type contextKey string

const (
	ctxTrace contextKey = "MEALVOTE_REQUEST_TRACE"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindAnonymous ActorKind = "anonymous"
	ActorKindSystem    ActorKind = "system"
)

// Trace captures request-scoped metadata stamped onto audit events.
// UserID and Role are set only when ActorKind is user.
type Trace struct {
	ActorKind ActorKind
	UserID    string
	Role      string
	TenantID  uuid.UUID
	RequestID string
}

// IntoContext stores the Trace in the provided context.
func IntoContext(ctx context.Context, trace Trace) context.Context {
	return context.WithValue(ctx, ctxTrace, trace)
}

// FromContext extracts the Trace from context, returning false when not present.
func FromContext(ctx context.Context) (Trace, bool) {
	if ctx == nil {
		return Trace{}, false
	}
	trace, ok := ctx.Value(ctxTrace).(Trace)
	return trace, ok
}

// FromContextOrSystem returns the Trace stored on the context, or a system record when absent.
// Background jobs and CLI commands have no request and therefore act as system.
func FromContextOrSystem(ctx context.Context) Trace {
	if trace, ok := FromContext(ctx); ok {
		return trace
	}
	return System("")
}

// FromIdentity builds a Trace from an authenticated identity and a request ID.
func FromIdentity(identity platformauth.Identity, requestID string) (Trace, error) {
	if identity.UserID == "" {
		return Trace{}, errors.New("user id is required to build request trace")
	}

	return Trace{
		ActorKind: ActorKindUser,
		UserID:    identity.UserID,
		Role:      identity.Role,
		TenantID:  identity.TenantID,
		RequestID: requestID,
	}, nil
}

// Anonymous builds a Trace for unauthenticated requests.
func Anonymous(requestID string) Trace {
	return Trace{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// System builds a Trace for background/system operations.
func System(requestID string) Trace {
	return Trace{ActorKind: ActorKindSystem, RequestID: requestID}
}
