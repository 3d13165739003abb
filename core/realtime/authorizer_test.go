package realtime

import (
	"errors"
	"testing"

	"github.com/tablerail/tablerail/core/auth"
	"github.com/tablerail/tablerail/core/tenant"
)

func intPtr(v int64) *int64 { return &v }

func TestAuthorizeOwnTenant(t *testing.T) {
	authz := NewChannelAuthorizer(nil)
	staff := tenant.Principal{UserID: 1, Role: tenant.RoleStaff, TenantID: intPtr(5)}

	stream, err := authz.Authorize(staff, "inventory_channel_5")
	if err != nil {
		t.Fatalf("expected attach: %v", err)
	}
	if stream.ID != "inventory_channel_5" {
		t.Fatalf("unexpected stream: %+v", stream)
	}

	if _, err := authz.Authorize(staff, "inventory_channel_7"); !errors.Is(err, auth.ErrChannelRejected) {
		t.Fatalf("expected rejection for foreign tenant, got %v", err)
	}
}

func TestAuthorizeCrossTenantRoles(t *testing.T) {
	authz := NewChannelAuthorizer(nil)
	for _, role := range []tenant.Role{tenant.RoleCustomer, tenant.RoleStaff, tenant.RoleAdmin} {
		p := tenant.Principal{UserID: 1, Role: role, TenantID: intPtr(5)}
		if _, err := authz.Authorize(p, "order_channel_7"); !errors.Is(err, auth.ErrChannelRejected) {
			t.Fatalf("role %s: expected rejection, got %v", role, err)
		}
	}
}

func TestAuthorizeSuperAdmin(t *testing.T) {
	authz := NewChannelAuthorizer(nil)
	root := tenant.Principal{UserID: 1, Role: tenant.RoleSuperAdmin}

	if _, err := authz.Authorize(root, "order_channel_7"); err != nil {
		t.Fatalf("expected cross-tenant attach for permitting kind: %v", err)
	}
	if _, err := authz.Authorize(root, "reservation_channel_7"); !errors.Is(err, auth.ErrChannelRejected) {
		t.Fatalf("expected rejection for non-permitting kind, got %v", err)
	}
}

func TestAuthorizeUnknownKind(t *testing.T) {
	authz := NewChannelAuthorizer(nil)
	p := tenant.Principal{UserID: 1, Role: tenant.RoleAdmin, TenantID: intPtr(5)}
	if _, err := authz.Authorize(p, "payments_channel_5"); !errors.Is(err, auth.ErrChannelRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
}
