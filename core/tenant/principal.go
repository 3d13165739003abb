package tenant

import (
	"fmt"

	"github.com/tablerail/tablerail/core/auth"
)

// Principal is the authenticated identity attached to a request or realtime
// connection. It lives for a single request, or for the lifetime of a
// connection, and is never cached across callers.
type Principal struct {
	UserID   int64
	Role     Role
	TenantID *int64

	// tenantSource records where TenantID came from, for resolution audit.
	tenantSource ResolutionSource
}

// UserRecord is the directory's view of a user: role plus restaurant
// association. TenantID is nil for super admins and for users not yet
// assigned to a restaurant.
type UserRecord struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	TenantID *int64 `json:"restaurant_id,omitempty"`
}

// NewPrincipal combines verified claims with the directory record. The
// directory association wins; a token claim naming a different restaurant
// than the user's association is a hard rejection, never an override.
func NewPrincipal(claims *auth.Claims, record *UserRecord) (Principal, error) {
	if claims == nil || record == nil {
		return Principal{}, fmt.Errorf("%w: missing identity inputs", auth.ErrUserNotFound)
	}
	if claims.UserID != record.ID {
		return Principal{}, fmt.Errorf("%w: claims subject %d does not match record %d", auth.ErrUserNotFound, claims.UserID, record.ID)
	}
	role, err := ParseRole(record.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", auth.ErrUserNotFound, err)
	}

	p := Principal{UserID: record.ID, Role: role, tenantSource: SourceNone}
	switch {
	case record.TenantID != nil:
		if claims.TenantID != nil && *claims.TenantID != *record.TenantID {
			return Principal{}, fmt.Errorf("%w: token restaurant %d does not match user restaurant %d",
				auth.ErrTenantMismatch, *claims.TenantID, *record.TenantID)
		}
		id := *record.TenantID
		p.TenantID = &id
		p.tenantSource = SourceUserAssociation
	case claims.TenantID != nil && role != RoleSuperAdmin:
		id := *claims.TenantID
		p.TenantID = &id
		p.tenantSource = SourceTokenClaim
	}
	return p, nil
}
