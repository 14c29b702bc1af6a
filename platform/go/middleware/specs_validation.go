package middleware

import (
	"context"
	"errors"

	"github.com/getkin/kin-openapi/openapi3filter"

	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
)

// ErrMissingIdentity is returned to the OpenAPI validator when an operation requires an identity and none is attached.
var ErrMissingIdentity = errors.New("missing caller identity")

// ValidateAuthenticationViaSwagger satisfies operations that declare security in the OpenAPI contract.
// The identity middleware runs before validation, so either the bearer token or the identity headers
// must already have produced an Identity on the request context. Capability checks happen per handler.
func ValidateAuthenticationViaSwagger(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil {
		return nil
	}
	switch input.SecuritySchemeName {
	case "bearerAuth", "identityHeaders":
		r := input.RequestValidationInput.Request
		if r == nil {
			return errors.New("no request in validation input")
		}
		if _, ok := platformauth.IdentityFromContext(r.Context()); !ok {
			return ErrMissingIdentity
		}
	}
	return nil
}
