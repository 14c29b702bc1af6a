package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/requesttrace"
)

// RequestTrace populates the context with a request-scoped Trace so services can stamp audit events.
// It must run after the identity middleware.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := platformlogging.FromRequest(r, nil)
		requestID := middleware.GetReqID(r.Context())

		trace := requesttrace.Anonymous(requestID)
		if identity, ok := platformauth.IdentityFromContext(r.Context()); ok {
			var err error
			trace, err = requesttrace.FromIdentity(identity, requestID)
			if err != nil {
				if logger != nil {
					logger.Error("build request trace from identity", zap.Error(err))
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		ctx := requesttrace.IntoContext(r.Context(), trace)
		if logger != nil {
			fields := []zap.Field{zap.String("actor_kind", string(trace.ActorKind))}
			if trace.UserID != "" {
				fields = append(fields, zap.String("user_id", trace.UserID), zap.String("role", trace.Role))
			}
			ctx = platformlogging.WithLogger(ctx, logger.With(fields...))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
