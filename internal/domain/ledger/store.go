package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leaveledger/internal/domain/category"
)

// PgStore is the pgx-backed ledger store.
type PgStore struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{DB: db}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockMember(ctx context.Context, memberID string) error {
	var id string
	err := t.tx.QueryRow(ctx, `
    SELECT id FROM members WHERE id = $1 FOR UPDATE
  `, memberID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMemberNotFound
	}
	return err
}

func (t *pgTx) MemberScope(ctx context.Context, memberID string) (string, error) {
	var scopeID string
	err := t.tx.QueryRow(ctx, `
    SELECT scope_id FROM members WHERE id = $1
  `, memberID).Scan(&scopeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrMemberNotFound
	}
	return scopeID, err
}

func (t *pgTx) Balances(ctx context.Context, memberID string) (map[category.Category]CategoryBalance, error) {
	rows, err := t.tx.Query(ctx, `
    SELECT category, granted, remaining
    FROM leave_balances
    WHERE member_id = $1
  `, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[category.Category]CategoryBalance, len(category.All()))
	for rows.Next() {
		var cat string
		var b CategoryBalance
		if err := rows.Scan(&cat, &b.Granted, &b.Remaining); err != nil {
			return nil, err
		}
		balances[category.Category(cat)] = b
	}
	return balances, rows.Err()
}

func (t *pgTx) EntriesForDays(ctx context.Context, memberID string, days []time.Time) ([]Entry, error) {
	rows, err := t.tx.Query(ctx, `
    SELECT e.id, e.member_id, e.category, e.day, e.scope_id, e.created_by, e.created_at,
           d.slot, d.from_sec, d.to_sec
    FROM leave_entries e
    LEFT JOIN leave_details d ON d.entry_id = e.id
    WHERE e.member_id = $1 AND e.day = ANY($2)
    ORDER BY e.day, e.created_at
  `, memberID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (t *pgTx) EntriesBetween(ctx context.Context, memberID string, from, to time.Time) ([]Entry, error) {
	query := `
    SELECT e.id, e.member_id, e.category, e.day, e.scope_id, e.created_by, e.created_at,
           d.slot, d.from_sec, d.to_sec
    FROM leave_entries e
    LEFT JOIN leave_details d ON d.entry_id = e.id
    WHERE e.member_id = $1 AND e.day >= $2
  `
	args := []any{memberID, from}
	if !to.IsZero() {
		query += " AND e.day <= $3"
		args = append(args, to)
	}
	query += " ORDER BY e.day, e.created_at"

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (t *pgTx) InsertEntry(ctx context.Context, e Entry) (string, error) {
	var id string
	if err := t.tx.QueryRow(ctx, `
    INSERT INTO leave_entries (member_id, category, day, scope_id, created_by)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, e.MemberID, string(e.Category), e.Day, e.ScopeID, e.CreatedBy).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (t *pgTx) InsertDetail(ctx context.Context, entryID string, d Detail) error {
	var slot *string
	if d.Slot != "" {
		slot = &d.Slot
	}
	_, err := t.tx.Exec(ctx, `
    INSERT INTO leave_details (entry_id, slot, from_sec, to_sec)
    VALUES ($1,$2,$3,$4)
  `, entryID, slot, d.FromSec, d.ToSec)
	return err
}

func (t *pgTx) EntryByID(ctx context.Context, entryID string) (Entry, error) {
	var e Entry
	var slot *string
	var fromSec, toSec *int
	err := t.tx.QueryRow(ctx, `
    SELECT e.id, e.member_id, e.category, e.day, e.scope_id, e.created_by, e.created_at,
           d.slot, d.from_sec, d.to_sec
    FROM leave_entries e
    LEFT JOIN leave_details d ON d.entry_id = e.id
    WHERE e.id = $1
  `, entryID).Scan(&e.ID, &e.MemberID, &e.Category, &e.Day, &e.ScopeID, &e.CreatedBy, &e.CreatedAt, &slot, &fromSec, &toSec)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	e.Detail = buildDetail(slot, fromSec, toSec)
	return e, nil
}

func (t *pgTx) DeleteDetail(ctx context.Context, entryID string) error {
	_, err := t.tx.Exec(ctx, "DELETE FROM leave_details WHERE entry_id = $1", entryID)
	return err
}

func (t *pgTx) DeleteEntry(ctx context.Context, entryID string) error {
	tag, err := t.tx.Exec(ctx, "DELETE FROM leave_entries WHERE id = $1", entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (t *pgTx) CountEntries(ctx context.Context, memberID string) (map[category.Category]int, error) {
	rows, err := t.tx.Query(ctx, `
    SELECT category, COUNT(1)
    FROM leave_entries
    WHERE member_id = $1
    GROUP BY category
  `, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[category.Category]int{}
	for rows.Next() {
		var cat string
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			return nil, err
		}
		counts[category.Category(cat)] = count
	}
	return counts, rows.Err()
}

func (t *pgTx) UpdateBalance(ctx context.Context, memberID string, cat category.Category, b CategoryBalance) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE leave_balances
    SET granted = $1, remaining = $2, updated_at = now()
    WHERE member_id = $3 AND category = $4
  `, b.Granted, b.Remaining, memberID, string(cat))
	return err
}

func (t *pgTx) UpdateAggregates(ctx context.Context, memberID string, granted, remaining float64) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE members
    SET aggregate_granted = $1, aggregate_remaining = $2, updated_at = now()
    WHERE id = $3
  `, granted, remaining, memberID)
	return err
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var slot *string
		var fromSec, toSec *int
		if err := rows.Scan(&e.ID, &e.MemberID, &e.Category, &e.Day, &e.ScopeID, &e.CreatedBy, &e.CreatedAt, &slot, &fromSec, &toSec); err != nil {
			return nil, err
		}
		e.Detail = buildDetail(slot, fromSec, toSec)
		out = append(out, e)
	}
	return out, rows.Err()
}

func buildDetail(slot *string, fromSec, toSec *int) *Detail {
	if slot == nil && fromSec == nil && toSec == nil {
		return nil
	}
	d := &Detail{}
	if slot != nil {
		d.Slot = *slot
	}
	if fromSec != nil {
		d.FromSec = *fromSec
	}
	if toSec != nil {
		d.ToSec = *toSec
	}
	return d
}
