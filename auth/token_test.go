package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

var alice = model.Identity{ID: 42, Username: "alice", Role: model.RoleHR, Department: "People"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newManager(t *testing.T, now time.Time) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", "echo-portal", 0)
	require.NoError(t, err)
	return m.WithClock(fixedClock(now))
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("  ", "echo-portal", time.Hour)
	assert.Error(t, err)
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	now := time.Date(2024, 7, 9, 10, 0, 0, 0, time.UTC)
	m := newManager(t, now)

	token, expiresAt, err := m.Issue(alice)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, alice, claims.Identity())
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now, claims.IssuedAt.Time.UTC())
	assert.Equal(t, expiresAt, claims.ExpiresAt.Time.UTC())
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	m := newManager(t, time.Now())
	a, _, err := m.Issue(alice)
	require.NoError(t, err)
	b, _, err := m.Issue(alice)
	require.NoError(t, err)

	ca, err := m.Verify(a)
	require.NoError(t, err)
	cb, err := m.Verify(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestTokenManager_Expired(t *testing.T) {
	issued := time.Date(2024, 7, 9, 10, 0, 0, 0, time.UTC)
	m := newManager(t, issued)
	token, _, err := m.Issue(alice)
	require.NoError(t, err)

	m.WithClock(fixedClock(issued.Add(24*time.Hour - time.Minute)))
	_, err = m.Verify(token)
	assert.NoError(t, err)

	m.WithClock(fixedClock(issued.Add(24*time.Hour + time.Minute)))
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, echo_errors.ErrUnauthenticated)
}

func TestTokenManager_Rejects(t *testing.T) {
	now := time.Now()
	m := newManager(t, now)
	token, _, err := m.Issue(alice)
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret", "echo-portal", time.Hour)
	require.NoError(t, err)
	foreign, _, err := other.Issue(alice)
	require.NoError(t, err)

	wrongIssuer, err := NewTokenManager("test-secret", "someone-else", time.Hour)
	require.NoError(t, err)
	misissued, _, err := wrongIssuer.Issue(alice)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1, Username: "mallory", Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "echo-portal",
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"Empty":       "",
		"Garbage":     "not-a-token",
		"WrongSecret": foreign,
		"WrongIssuer": misissued,
		"Tampered":    tampered,
		"AlgNone":     unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(tok)
			assert.ErrorIs(t, err, echo_errors.ErrUnauthenticated)
		})
	}
}
