package ledger

import (
	"context"
	"time"

	"leaveledger/internal/domain/category"
)

// Store opens ledger transactions. Every mutating operation runs inside a
// single WithTx callback; a returned error rolls the transaction back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transaction-scoped persistence surface of the ledger.
type Tx interface {
	// LockMember takes the member row lock for the duration of the
	// transaction and reports ErrMemberNotFound for unknown members.
	LockMember(ctx context.Context, memberID string) error
	MemberScope(ctx context.Context, memberID string) (string, error)
	Balances(ctx context.Context, memberID string) (map[category.Category]CategoryBalance, error)
	EntriesForDays(ctx context.Context, memberID string, days []time.Time) ([]Entry, error)
	EntriesBetween(ctx context.Context, memberID string, from, to time.Time) ([]Entry, error)
	InsertEntry(ctx context.Context, e Entry) (string, error)
	InsertDetail(ctx context.Context, entryID string, d Detail) error
	EntryByID(ctx context.Context, entryID string) (Entry, error)
	DeleteDetail(ctx context.Context, entryID string) error
	DeleteEntry(ctx context.Context, entryID string) error
	// CountEntries returns the number of stored entries per category for
	// the member, zero-valued categories omitted.
	CountEntries(ctx context.Context, memberID string) (map[category.Category]int, error)
	UpdateBalance(ctx context.Context, memberID string, cat category.Category, b CategoryBalance) error
	UpdateAggregates(ctx context.Context, memberID string, granted, remaining float64) error
}

// AccessGate answers whether an actor may operate on a member's ledger.
type AccessGate interface {
	CanAccess(ctx context.Context, actor Actor, memberID string) (bool, error)
}

// AuditSink records ledger mutations, best-effort.
type AuditSink interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, details any) error
}
