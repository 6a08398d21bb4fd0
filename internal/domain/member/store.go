package member

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leaveledger/internal/domain/category"
	"leaveledger/internal/domain/ledger"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Create inserts the member and one balance row per category in a single
// transaction, seeding the aggregates through the balance projection.
func (s *Store) Create(ctx context.Context, input OnboardingInput) (string, error) {
	balances := make(map[category.Category]ledger.CategoryBalance, len(category.All()))
	for _, cat := range category.All() {
		g := input.Granted[cat]
		balances[cat] = ledger.CategoryBalance{Granted: g, Remaining: g}
	}
	aggregateGranted, aggregateRemaining := ledger.Aggregate(balances)

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO members (name, designation, scope_id, joined_at, aggregate_granted, aggregate_remaining)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, input.Name, input.Designation, input.ScopeID, input.JoinedAt, aggregateGranted, aggregateRemaining).Scan(&id); err != nil {
		return "", err
	}

	for _, cat := range category.All() {
		b := balances[cat]
		if _, err := tx.Exec(ctx, `
      INSERT INTO leave_balances (member_id, category, granted, remaining)
      VALUES ($1,$2,$3,$4)
    `, id, string(cat), b.Granted, b.Remaining); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, memberID string) (Member, error) {
	var m Member
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, designation, scope_id, aggregate_granted, aggregate_remaining, joined_at, created_at
    FROM members
    WHERE id = $1
  `, memberID).Scan(&m.ID, &m.Name, &m.Designation, &m.ScopeID, &m.AggregateGranted, &m.AggregateRemaining, &m.JoinedAt, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ledger.ErrMemberNotFound
	}
	return m, err
}

func (s *Store) ScopeOf(ctx context.Context, memberID string) (string, error) {
	var scopeID string
	err := s.DB.QueryRow(ctx, "SELECT scope_id FROM members WHERE id = $1", memberID).Scan(&scopeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ledger.ErrMemberNotFound
	}
	return scopeID, err
}

func (s *Store) List(ctx context.Context, scopeID string, limit, offset int) ([]Member, error) {
	query := `
    SELECT id, name, designation, scope_id, aggregate_granted, aggregate_remaining, joined_at, created_at
    FROM members
  `
	args := []any{}
	if scopeID != "" {
		query += " WHERE scope_id = $1"
		args = append(args, scopeID)
	}
	query += " ORDER BY name"
	query += limitOffsetClause(len(args))
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Designation, &m.ScopeID, &m.AggregateGranted, &m.AggregateRemaining, &m.JoinedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func limitOffsetClause(argCount int) string {
	switch argCount {
	case 0:
		return " LIMIT $1 OFFSET $2"
	default:
		return " LIMIT $2 OFFSET $3"
	}
}
