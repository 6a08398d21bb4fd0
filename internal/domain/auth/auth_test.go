package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	claims := Claims{ActorID: "a1", Role: RoleWarden, ScopeID: "s1"}
	token, err := GenerateToken("test-secret", claims, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.ActorID != "a1" || parsed.Role != RoleWarden || parsed.ScopeID != "s1" {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{ActorID: "a1", Role: RoleStaff}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestRolePermissions(t *testing.T) {
	perms := Permissions{}

	ok, err := perms.HasPermission(nil, RoleAdmin, PermLeaveAdjust)
	if err != nil || !ok {
		t.Fatalf("admin should adjust balances, ok=%v err=%v", ok, err)
	}
	ok, _ = perms.HasPermission(nil, RoleStaff, PermLeaveAdjust)
	if ok {
		t.Fatal("staff must not adjust balances")
	}
	ok, _ = perms.HasPermission(nil, RoleWarden, PermAuditRead)
	if ok {
		t.Fatal("warden must not read the audit log")
	}
}
