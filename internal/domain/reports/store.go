package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BalanceRow struct {
	MemberID           string
	Name               string
	Designation        string
	ScopeName          string
	AggregateGranted   float64
	AggregateRemaining float64
}

type EntryRow struct {
	MemberName string
	Category   string
	Day        time.Time
	Slot       string
	FromSec    int
	ToSec      int
	CreatedAt  time.Time
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) BalanceRows(ctx context.Context, scopeID string) ([]BalanceRow, error) {
	query := `
    SELECT m.id, m.name, m.designation, s.name,
           m.aggregate_granted, m.aggregate_remaining
    FROM members m
    JOIN scopes s ON m.scope_id = s.id`
	args := []any{}
	if scopeID != "" {
		query += " WHERE m.scope_id = $1"
		args = append(args, scopeID)
	}
	query += " ORDER BY s.name, m.name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceRow
	for rows.Next() {
		var row BalanceRow
		if err := rows.Scan(&row.MemberID, &row.Name, &row.Designation, &row.ScopeName,
			&row.AggregateGranted, &row.AggregateRemaining); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) EntryRows(ctx context.Context, scopeID string, from, to time.Time) ([]EntryRow, error) {
	query := `
    SELECT m.name, e.category, e.day,
           COALESCE(d.slot, ''), COALESCE(d.from_sec, 0), COALESCE(d.to_sec, 0),
           e.created_at
    FROM leave_entries e
    JOIN members m ON e.member_id = m.id
    LEFT JOIN leave_details d ON d.entry_id = e.id
    WHERE e.day >= $1 AND e.day <= $2`
	args := []any{from, to}
	if scopeID != "" {
		query += " AND e.scope_id = $3"
		args = append(args, scopeID)
	}
	query += " ORDER BY e.day, m.name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var row EntryRow
		if err := rows.Scan(&row.MemberName, &row.Category, &row.Day,
			&row.Slot, &row.FromSec, &row.ToSec, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
