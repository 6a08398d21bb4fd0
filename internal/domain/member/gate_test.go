package member

import (
	"context"
	"testing"

	"leaveledger/internal/domain/auth"
	"leaveledger/internal/domain/ledger"
)

func TestGateAdminSeesEveryone(t *testing.T) {
	gate := NewGate(nil)
	ok, err := gate.CanAccess(context.Background(), ledger.Actor{ID: "a1", Role: auth.RoleAdmin}, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("admin must have access")
	}
}

func TestGateStaffSelfOnly(t *testing.T) {
	gate := NewGate(nil)
	actor := ledger.Actor{ID: "a1", Role: auth.RoleStaff, MemberID: "m1"}

	ok, err := gate.CanAccess(context.Background(), actor, "m1")
	if err != nil || !ok {
		t.Fatalf("staff must access own record, ok=%v err=%v", ok, err)
	}
	ok, _ = gate.CanAccess(context.Background(), actor, "m2")
	if ok {
		t.Fatal("staff must not access other members")
	}

	nobody := ledger.Actor{ID: "a2", Role: auth.RoleStaff}
	ok, _ = gate.CanAccess(context.Background(), nobody, "m1")
	if ok {
		t.Fatal("staff without a member record must be denied")
	}
}

func TestGateUnknownRoleDenied(t *testing.T) {
	gate := NewGate(nil)
	ok, err := gate.CanAccess(context.Background(), ledger.Actor{ID: "a1", Role: "visitor"}, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("unknown roles must be denied")
	}
}

func TestGateWardenWithoutScopeDenied(t *testing.T) {
	gate := NewGate(nil)
	ok, err := gate.CanAccess(context.Background(), ledger.Actor{ID: "a1", Role: auth.RoleWarden}, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("warden without a scope must be denied")
	}
}
