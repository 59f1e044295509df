package model

import "time"

// BlockedToken mirrors the `blocked_tokens` table. Each row records an
// access/refresh token pair revoked by logout. Rows are append-only and
// never pruned; the table grows with every logout.
type BlockedToken struct {
	ID           int64     // blocked_tokens.id
	Token        string    // blocked_tokens.token
	RefreshToken string    // blocked_tokens.refresh_token
	CreatedAt    time.Time // blocked_tokens.created_at
}
