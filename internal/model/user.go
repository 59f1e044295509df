package model

import "time"

// User mirrors the `users` table. The ID is the user-chosen identifier
// (username or email) and doubles as the primary key. RefreshToken holds
// the most recently issued refresh token; signing in overwrites it, which
// implicitly invalidates the previous one.
type User struct {
	ID           string    // users.id
	PasswordHash string    // users.password_hash
	RefreshToken string    // users.refresh_token
	CreatedAt    time.Time // users.created_at
}
