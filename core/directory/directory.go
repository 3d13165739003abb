// Package directory exposes the narrow read interfaces the gateway consumes
// from the SaaS core: user records and restaurant existence. Persistence and
// full CRUD live elsewhere.
package directory

import (
	"context"

	"github.com/tablerail/tablerail/core/tenant"
)

// UserStore looks up the role and restaurant association for a user id.
type UserStore interface {
	LookupUser(ctx context.Context, id int64) (*tenant.UserRecord, error)
}

// TenantStore answers restaurant existence checks, used to validate
// super_admin-supplied restaurant ids before scoping by them.
type TenantStore interface {
	TenantExists(ctx context.Context, id int64) (bool, error)
}

// Store bundles both collaborators behind one handle.
type Store interface {
	UserStore
	TenantStore
	Close() error
}
