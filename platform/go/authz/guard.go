package authz

import (
	"fmt"
	"strings"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
)

// RequirePermission allows (nil) when set grants the capability, otherwise it
// returns a forbidden error with a stable reason.
func RequirePermission(set CapabilitySet, c Capability) error {
	if _, known := ParseCapability(string(c)); !known {
		return apperrors.Forbidden(fmt.Sprintf("unknown capability %q", string(c)))
	}
	if !set.Has(c) {
		return apperrors.Forbidden(fmt.Sprintf("missing capability %s", c))
	}
	return nil
}

// RequireRole allows when the identity's role label equals one of allowed, case-insensitively.
func RequireRole(identity platformauth.Identity, allowed ...string) error {
	role := strings.TrimSpace(identity.Role)
	if role == "" {
		return apperrors.Forbidden("role required")
	}
	for _, a := range allowed {
		if strings.EqualFold(role, strings.TrimSpace(a)) {
			return nil
		}
	}
	return apperrors.Forbidden(fmt.Sprintf("role %s is not allowed", strings.ToLower(role)))
}

// RequireRole canonicalises both the identity's label and the allowed labels
// through the legacy table before comparing, so "Cocina" satisfies "kitchen".
func (r *Resolver) RequireRole(identity platformauth.Identity, allowed ...string) error {
	canonical := identity
	canonical.Role = r.legacy.Canonical(identity.Role)

	normalized := make([]string, 0, len(allowed))
	for _, a := range allowed {
		normalized = append(normalized, r.legacy.Canonical(a))
	}
	return RequireRole(canonical, normalized...)
}
