package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyTokenPair(t *testing.T) {
	t.Parallel()

	pair, err := IssueTokenPair("access-secret", "refresh-secret", "alice", 10*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	id, err := VerifyToken("access-secret", pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	id, err = VerifyToken("refresh-secret", pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)
}

func TestIssueTokenPair_TokensAreUnique(t *testing.T) {
	t.Parallel()

	// Two pairs for the same user in the same instant must not collide,
	// or blocking one session would block the other.
	p1, err := IssueTokenPair("a", "r", "alice", time.Minute, time.Minute)
	require.NoError(t, err)
	p2, err := IssueTokenPair("a", "r", "alice", time.Minute, time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, p1.AccessToken, p2.AccessToken)
	assert.NotEqual(t, p1.RefreshToken, p2.RefreshToken)
}

func TestVerifyToken_CrossSecretRejected(t *testing.T) {
	t.Parallel()

	pair, err := IssueTokenPair("access-secret", "refresh-secret", "alice", 10*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	// An access token must never verify as a refresh token and vice versa.
	_, err = VerifyToken("refresh-secret", pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = VerifyToken("access-secret", pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	pair, err := IssueTokenPair("s1", "s2", "bob", -time.Minute, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken("s1", pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := VerifyToken("s1", "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyToken("s1", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
