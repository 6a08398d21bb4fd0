package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrActorNotFound = errors.New("actor not found")

type Actor struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	ScopeID      string
	MemberID     string
	CreatedAt    time.Time
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActorByEmail(ctx context.Context, email string) (Actor, error) {
	var a Actor
	var scopeID, memberID *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, role, scope_id, member_id, created_at
    FROM actors
    WHERE email = $1
  `, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &scopeID, &memberID, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Actor{}, ErrActorNotFound
	}
	if err != nil {
		return Actor{}, err
	}
	if scopeID != nil {
		a.ScopeID = *scopeID
	}
	if memberID != nil {
		a.MemberID = *memberID
	}
	return a, nil
}
