package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"leaveledger/internal/domain/auth"
	"leaveledger/internal/platform/config"
)

// Seed creates the default scope and admin actor when missing. It is
// idempotent so it can run on every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	scopeID, err := ensureScope(ctx, pool, "Head Office")
	if err != nil {
		return err
	}

	if err := ensureAdmin(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword, scopeID); err != nil {
		return err
	}

	return nil
}

func ensureScope(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM scopes WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO scopes (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, email, password, scopeID string) error {
	if email == "" || password == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM actors WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO actors (email, password_hash, role, scope_id) VALUES ($1, $2, $3, $4)",
		email, hash, auth.RoleAdmin, scopeID)
	return err
}
