package tenant

import (
	"fmt"

	"github.com/tablerail/tablerail/core/auth"
)

// ResolutionSource records where an effective tenant id came from.
type ResolutionSource string

const (
	SourceTokenClaim      ResolutionSource = "token_claim"
	SourceExplicitParam   ResolutionSource = "explicit_param"
	SourceUserAssociation ResolutionSource = "user_association"
	SourceNone            ResolutionSource = "none"
)

// Context is the resolved tenant scope for one request or connection. It is
// passed explicitly through every call boundary; there is no ambient
// current-tenant state. Every downstream query must be scoped by
// EffectiveTenantID, never by a caller-supplied identifier directly.
type Context struct {
	EffectiveTenantID *int64
	Source            ResolutionSource
}

// Global reports whether the context carries no tenant bound (super admins
// on designated global endpoints only).
func (c Context) Global() bool {
	return c.EffectiveTenantID == nil
}

// Resolve derives the effective tenant for a principal. Non-privileged
// callers can never steer the outcome with requestedTenantID: their own
// association always wins, and a missing association is a rejection.
//
// A super admin with no requested tenant resolves to a global context
// (EffectiveTenantID nil, SourceNone). Resolve does not decide which
// endpoints may serve such a context; handlers that only make sense
// tenant-scoped must check Context.Global and reject it themselves.
func Resolve(p Principal, requestedTenantID *int64) (Context, error) {
	if p.Role == RoleSuperAdmin {
		if requestedTenantID != nil {
			id := *requestedTenantID
			return Context{EffectiveTenantID: &id, Source: SourceExplicitParam}, nil
		}
		return Context{Source: SourceNone}, nil
	}

	if p.TenantID != nil {
		id := *p.TenantID
		source := p.tenantSource
		if source == SourceNone || source == "" {
			source = SourceUserAssociation
		}
		return Context{EffectiveTenantID: &id, Source: source}, nil
	}

	return Context{}, fmt.Errorf("%w: user %d has no restaurant association", auth.ErrTenantMismatch, p.UserID)
}
