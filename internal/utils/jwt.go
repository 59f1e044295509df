package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by VerifyToken for any token that fails
// signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// TokenPair bundles the two JWTs issued to a client: a short-lived access
// token for API calls and a longer-lived refresh token used solely to mint
// the next pair. Both carry the user id as subject but are signed with
// distinct secrets, so one can never be used in place of the other.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// IssueTokenPair signs an access and a refresh token for a user. The
// tokens are HS256 JWTs with sub, exp and iat claims; accessTTL and
// refreshTTL control their lifetimes.
func IssueTokenPair(accessSecret, refreshSecret, userID string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	access, err := signToken(accessSecret, userID, accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signToken(refreshSecret, userID, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func signToken(secret, userID string, ttl time.Duration) (string, error) {
	// The jti claim makes every token unique even when two are minted for
	// the same user within the same second; the blocklist matches tokens
	// by value, so identical tokens would be revoked together.
	jti, err := randomHex(8)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"jti": jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// VerifyToken checks a token's signature and expiry against the given
// secret and returns the user id carried in the sub claim.
func VerifyToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
