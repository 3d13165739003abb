package gateway

import (
	"context"

	"github.com/tablerail/tablerail/core/tenant"
)

type contextKey int

const (
	principalKey contextKey = iota
	tenantKey
)

// WithIdentity attaches the resolved principal and tenant context to a
// request context. Downstream handlers scope every query by these
// values, never by caller-supplied identifiers.
func WithIdentity(ctx context.Context, p tenant.Principal, tc tenant.Context) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, tenantKey, tc)
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (tenant.Principal, bool) {
	p, ok := ctx.Value(principalKey).(tenant.Principal)
	return p, ok
}

// TenantFrom returns the resolved tenant context, if any.
func TenantFrom(ctx context.Context) (tenant.Context, bool) {
	tc, ok := ctx.Value(tenantKey).(tenant.Context)
	return tc, ok
}
