package token_test

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/bigmini/auth-service/token"
)

const (
	accessSecret  = "access-secret-1"
	refreshSecret = "refresh-secret-1"
	verifySecret  = "verify-secret-1"
	testUserID    = "user-1"
)

// fakeClock is an adjustable time source shared with the manager under test.
type fakeClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*token.Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	m := token.New(
		token.NewHMACSigner(accessSecret),
		token.NewHMACSigner(refreshSecret),
		token.NewHMACSigner(verifySecret),
		token.WithNowFunc(clock.Now),
	)
	return m, clock
}

func TestIssuePairRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	pair, err := m.IssuePair(testUserID, 3)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := m.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, userID)

	userID, generation, err := m.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, userID)
	require.Equal(t, int64(3), generation)
}

func TestVerificationRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	signed, err := m.IssueVerification(testUserID)
	require.NoError(t, err)

	userID, err := m.ValidateVerification(signed)
	require.NoError(t, err)
	require.Equal(t, testUserID, userID)
}

func TestAccessTokenExpiresAtExactInstant(t *testing.T) {
	m, clock := newTestManager(t)

	pair, err := m.IssuePair(testUserID, 1)
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)
	_, err = m.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)

	// A token is invalid at its expiry instant, not one second after.
	clock.Advance(time.Second)
	_, err = m.ValidateAccess(pair.AccessToken)
	require.ErrorIs(t, err, token.ErrExpired)
}

func TestRefreshTokenExpires(t *testing.T) {
	m, clock := newTestManager(t)

	pair, err := m.IssuePair(testUserID, 1)
	require.NoError(t, err)

	clock.Advance(7 * 24 * time.Hour)
	_, _, err = m.ValidateRefresh(pair.RefreshToken)
	require.ErrorIs(t, err, token.ErrExpired)
}

func TestVerificationTokenExpires(t *testing.T) {
	m, clock := newTestManager(t)

	signed, err := m.IssueVerification(testUserID)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = m.ValidateVerification(signed)
	require.ErrorIs(t, err, token.ErrExpired)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	m, _ := newTestManager(t)

	pair, err := m.IssuePair(testUserID, 1)
	require.NoError(t, err)
	signed, err := m.IssueVerification(testUserID)
	require.NoError(t, err)

	_, _, err = m.ValidateRefresh(pair.AccessToken)
	require.ErrorIs(t, err, token.ErrInvalid)

	_, err = m.ValidateAccess(pair.RefreshToken)
	require.ErrorIs(t, err, token.ErrInvalid)

	_, err = m.ValidateAccess(signed)
	require.ErrorIs(t, err, token.ErrInvalid)
}

func TestWrongSecretRejected(t *testing.T) {
	m, _ := newTestManager(t)
	other := token.New(
		token.NewHMACSigner("completely-different-secret"),
		token.NewHMACSigner(refreshSecret),
		token.NewHMACSigner(verifySecret),
	)

	pair, err := other.IssuePair(testUserID, 1)
	require.NoError(t, err)

	_, err = m.ValidateAccess(pair.AccessToken)
	require.ErrorIs(t, err, token.ErrInvalid)
}

func TestMalformedTokenRejected(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.ValidateAccess("not.a.jwt")
	require.ErrorIs(t, err, token.ErrInvalid)

	_, _, err = m.ValidateRefresh("")
	require.ErrorIs(t, err, token.ErrInvalid)
}

func TestRefreshTokenWithoutGenerationRejected(t *testing.T) {
	m, clock := newTestManager(t)

	// Hand-crafted refresh token missing the generation claim.
	signer := token.NewHMACSigner(refreshSecret)
	now := clock.Now()
	signed, err := signer.Sign(jwt.MapClaims{
		"sub": testUserID,
		"typ": "refresh",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, _, err = m.ValidateRefresh(signed)
	require.ErrorIs(t, err, token.ErrInvalid)
}

func TestTokenWithoutExpiryRejected(t *testing.T) {
	m, clock := newTestManager(t)

	signer := token.NewHMACSigner(accessSecret)
	signed, err := signer.Sign(jwt.MapClaims{
		"sub": testUserID,
		"typ": "access",
		"iat": clock.Now().Unix(),
	})
	require.NoError(t, err)

	_, err = m.ValidateAccess(signed)
	require.ErrorIs(t, err, token.ErrInvalid)
}
