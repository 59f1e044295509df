package repository

import (
	"context"
	"database/sql"
)

// TokenBlocklist records access/refresh token pairs revoked before their
// natural expiry. Entries are append-only; duplicates are allowed and
// nothing is ever pruned.
type TokenBlocklist interface {
	Block(ctx context.Context, token, refreshToken string) error
	IsBlocked(ctx context.Context, token string) (bool, error)
	IsRefreshBlocked(ctx context.Context, refreshToken string) (bool, error)
}

// BlockedTokenRepo implements TokenBlocklist over MySQL.
type BlockedTokenRepo struct{ DB *sql.DB }

func NewBlockedTokenRepo(db *sql.DB) *BlockedTokenRepo { return &BlockedTokenRepo{DB: db} }

// Block inserts a revoked token pair.
func (r *BlockedTokenRepo) Block(ctx context.Context, token, refreshToken string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO blocked_tokens (token, refresh_token) VALUES (?,?)",
		token, refreshToken)
	return err
}

// IsBlocked reports whether an access token has been revoked.
func (r *BlockedTokenRepo) IsBlocked(ctx context.Context, token string) (bool, error) {
	var blocked bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM blocked_tokens WHERE token=?)", token).Scan(&blocked)
	return blocked, err
}

// IsRefreshBlocked reports whether a refresh token has been revoked.
func (r *BlockedTokenRepo) IsRefreshBlocked(ctx context.Context, refreshToken string) (bool, error) {
	var blocked bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM blocked_tokens WHERE refresh_token=?)", refreshToken).Scan(&blocked)
	return blocked, err
}
