package tenant

import (
	"errors"
	"testing"

	"github.com/tablerail/tablerail/core/auth"
)

func intPtr(v int64) *int64 { return &v }

func TestResolveIgnoresRequestedTenantForScopedUsers(t *testing.T) {
	p := Principal{UserID: 1, Role: RoleStaff, TenantID: intPtr(5), tenantSource: SourceUserAssociation}

	for _, requested := range []*int64{nil, intPtr(5), intPtr(7), intPtr(0)} {
		ctx, err := Resolve(p, requested)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if ctx.EffectiveTenantID == nil || *ctx.EffectiveTenantID != 5 {
			t.Fatalf("effective tenant = %v, want 5 (requested %v)", ctx.EffectiveTenantID, requested)
		}
		if ctx.Source != SourceUserAssociation {
			t.Fatalf("unexpected source: %s", ctx.Source)
		}
	}
}

func TestResolveUnassociatedUserRejected(t *testing.T) {
	for _, role := range []Role{RoleCustomer, RoleStaff, RoleAdmin} {
		p := Principal{UserID: 2, Role: role}
		if _, err := Resolve(p, intPtr(5)); !errors.Is(err, auth.ErrTenantMismatch) {
			t.Fatalf("role %s: expected ErrTenantMismatch, got %v", role, err)
		}
	}
}

func TestResolveSuperAdmin(t *testing.T) {
	p := Principal{UserID: 3, Role: RoleSuperAdmin}

	ctx, err := Resolve(p, intPtr(9))
	if err != nil {
		t.Fatalf("resolve with param: %v", err)
	}
	if ctx.EffectiveTenantID == nil || *ctx.EffectiveTenantID != 9 {
		t.Fatalf("effective tenant = %v, want 9", ctx.EffectiveTenantID)
	}
	if ctx.Source != SourceExplicitParam {
		t.Fatalf("unexpected source: %s", ctx.Source)
	}

	ctx, err = Resolve(p, nil)
	if err != nil {
		t.Fatalf("resolve global: %v", err)
	}
	if !ctx.Global() || ctx.Source != SourceNone {
		t.Fatalf("expected global scope, got %+v", ctx)
	}
}

func TestResolveTokenClaimSource(t *testing.T) {
	claims := &auth.Claims{UserID: 4, TenantID: intPtr(6)}
	record := &UserRecord{ID: 4, Role: "customer"}
	p, err := NewPrincipal(claims, record)
	if err != nil {
		t.Fatalf("new principal: %v", err)
	}

	ctx, err := Resolve(p, intPtr(8))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ctx.EffectiveTenantID == nil || *ctx.EffectiveTenantID != 6 {
		t.Fatalf("effective tenant = %v, want 6", ctx.EffectiveTenantID)
	}
	if ctx.Source != SourceTokenClaim {
		t.Fatalf("unexpected source: %s", ctx.Source)
	}
}

func TestNewPrincipalClaimRecordTenantConflict(t *testing.T) {
	claims := &auth.Claims{UserID: 4, TenantID: intPtr(7)}
	record := &UserRecord{ID: 4, Role: "staff", TenantID: intPtr(5)}
	if _, err := NewPrincipal(claims, record); !errors.Is(err, auth.ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
}

func TestNewPrincipalSubjectMismatch(t *testing.T) {
	claims := &auth.Claims{UserID: 4}
	record := &UserRecord{ID: 5, Role: "staff", TenantID: intPtr(5)}
	if _, err := NewPrincipal(claims, record); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestNewPrincipalUnknownRole(t *testing.T) {
	claims := &auth.Claims{UserID: 4}
	record := &UserRecord{ID: 4, Role: "owner"}
	if _, err := NewPrincipal(claims, record); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestNewPrincipalSuperAdminIgnoresClaimTenant(t *testing.T) {
	claims := &auth.Claims{UserID: 9, TenantID: intPtr(3)}
	record := &UserRecord{ID: 9, Role: "super_admin"}
	p, err := NewPrincipal(claims, record)
	if err != nil {
		t.Fatalf("new principal: %v", err)
	}
	if p.TenantID != nil {
		t.Fatalf("super admin should have no tenant binding, got %v", *p.TenantID)
	}
}
