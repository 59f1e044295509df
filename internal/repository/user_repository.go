package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/media-vault/internal/model"
)

// UserStore is the credential store consumed by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, id, passwordHash, refreshToken string) error
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) error
}

// UserRepo implements UserStore over MySQL.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user together with their first refresh token.
func (r *UserRepo) Create(ctx context.Context, id, passwordHash, refreshToken string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, password_hash, refresh_token) VALUES (?,?,?)",
		id, passwordHash, refreshToken)
	if err != nil {
		// 1062 = ER_DUP_ENTRY
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, password_hash, refresh_token, created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.PasswordHash, &refresh, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.RefreshToken = refresh.String
	return u, nil
}

// UpdateRefreshToken overwrites the stored refresh token, invalidating
// whatever token was recorded before.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, id, refreshToken string) error {
	// RowsAffected is not checked: MySQL reports 0 when the new value
	// equals the old one, which is not an error here.
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=?", refreshToken, id)
	return err
}
