package member

import (
	"context"

	"leaveledger/internal/domain/auth"
	"leaveledger/internal/domain/ledger"
)

// Gate answers ledger access checks: admins see everyone, wardens see their
// own scope, staff see only their own record.
type Gate struct {
	Store *Store
}

func NewGate(store *Store) *Gate {
	return &Gate{Store: store}
}

func (g *Gate) CanAccess(ctx context.Context, actor ledger.Actor, memberID string) (bool, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return true, nil
	case auth.RoleStaff:
		return actor.MemberID != "" && actor.MemberID == memberID, nil
	case auth.RoleWarden:
		if actor.ScopeID == "" {
			return false, nil
		}
		scopeID, err := g.Store.ScopeOf(ctx, memberID)
		if err != nil {
			return false, err
		}
		return scopeID == actor.ScopeID, nil
	}
	return false, nil
}
