package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{UserID: 42, Email: "a@x.com", Username: "alice"}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestManager(t *testing.T, clock *fakeClock, mutate ...func(*TokenConfig)) *TokenManager {
	t.Helper()

	cfg := TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     24 * time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		ClockSkew:     30 * time.Second,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	var opts []TokenOption
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}

	manager, err := NewTokenManager(cfg, opts...)
	require.NoError(t, err)
	return manager
}

func TestNewTokenManagerRejectsWeakSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  TokenConfig
	}{
		{name: "missing access", cfg: TokenConfig{RefreshSecret: "r"}},
		{name: "missing refresh", cfg: TokenConfig{AccessSecret: "a"}},
		{name: "same secret", cfg: TokenConfig{AccessSecret: "s", RefreshSecret: "s"}},
		{name: "negative refresh ttl", cfg: TokenConfig{AccessSecret: "a", RefreshSecret: "r", RefreshTTL: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewTokenManager(tt.cfg)
			require.Error(t, err)
			require.Nil(t, manager)
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)

	token, err := manager.IssueAccessToken(testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Verify(token, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, claims.Identity())
	assert.Equal(t, AccessToken, claims.Type)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenPayloadFieldNames(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)
	token, err := manager.IssueAccessToken(testIdentity)
	require.NoError(t, err)

	mapClaims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, mapClaims)
	require.NoError(t, err)

	assert.EqualValues(t, 42, mapClaims["userId"])
	assert.Equal(t, "a@x.com", mapClaims["email"])
	assert.Equal(t, "alice", mapClaims["username"])
	assert.Contains(t, mapClaims, "iat")
	assert.Contains(t, mapClaims, "exp")
}

func TestAccessTokenExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	manager := newTestManager(t, clock)

	token, err := manager.IssueAccessToken(testIdentity)
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		clock.now = time.Date(2026, 3, 2, 11, 59, 59, 0, time.UTC)
		_, err := manager.Verify(token, AccessToken)
		require.NoError(t, err)
	})

	t.Run("tolerated within clock skew", func(t *testing.T) {
		clock.now = time.Date(2026, 3, 2, 12, 0, 10, 0, time.UTC)
		_, err := manager.Verify(token, AccessToken)
		require.NoError(t, err)
	})

	t.Run("expired after 24 hours", func(t *testing.T) {
		clock.now = time.Date(2026, 3, 2, 12, 0, 31, 0, time.UTC)
		_, err := manager.Verify(token, AccessToken)
		require.ErrorIs(t, err, ErrTokenExpired)
		require.NotErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestIssuedInFutureIsInvalid(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	manager := newTestManager(t, clock)

	token, err := manager.IssueAccessToken(testIdentity)
	require.NoError(t, err)

	clock.now = clock.now.Add(-time.Hour)
	_, err = manager.Verify(token, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWithDifferentSecret(t *testing.T) {
	t.Parallel()

	issuer := newTestManager(t, nil)
	verifier := newTestManager(t, nil, func(cfg *TokenConfig) {
		cfg.AccessSecret = "another-access-secret"
		cfg.RefreshSecret = "another-refresh-secret"
	})

	access, err := issuer.IssueAccessToken(testIdentity)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefreshToken(testIdentity)
	require.NoError(t, err)

	_, err = verifier.Verify(access, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = verifier.Verify(refresh, RefreshToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpiredTokenWithWrongSignatureIsInvalid(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newTestManager(t, clock)
	verifier := newTestManager(t, clock, func(cfg *TokenConfig) {
		cfg.AccessSecret = "another-access-secret"
	})

	token, err := issuer.IssueAccessToken(testIdentity)
	require.NoError(t, err)

	clock.now = clock.now.Add(48 * time.Hour)
	_, err = verifier.Verify(token, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
	require.NotErrorIs(t, err, ErrTokenExpired)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)

	access, err := manager.IssueAccessToken(testIdentity)
	require.NoError(t, err)
	refresh, err := manager.IssueRefreshToken(testIdentity)
	require.NoError(t, err)

	_, err = manager.Verify(access, RefreshToken)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = manager.Verify(refresh, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)

	claims, err := manager.Verify(refresh, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, claims.Identity())
}

func TestTypeClaimIsEnforced(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)

	// A refresh-typed payload signed with the access secret must still be rejected.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   testIdentity.UserID,
		Email:    testIdentity.Email,
		Username: testIdentity.Username,
		Type:     RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := forged.SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = manager.Verify(token, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)
	valid, err := manager.IssueAccessToken(testIdentity)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "random string", token: "not-a-token"},
		{name: "truncated", token: parts[0] + "." + parts[1]},
		{name: "garbage segments", token: "not.a.jwt"},
		{name: "tampered payload", token: parts[0] + "." + parts[1] + "x." + parts[2]},
		{name: "stripped signature", token: parts[0] + "." + parts[1] + "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Verify(tt.token, AccessToken)
			require.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)
	claims := Claims{
		UserID: 1,
		Type:   AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = manager.Verify(hs512, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = manager.Verify(none, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRequiresUserID(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = manager.Verify(token, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = manager.IssueAccessToken(Identity{})
	require.Error(t, err)
}

func TestAccessTokenWithoutExpiryIsInvalid(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, nil)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 7,
		Type:   AccessToken,
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = manager.Verify(token, AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenExpiryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("bounded lifetime", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
		manager := newTestManager(t, clock)

		token, err := manager.IssueRefreshToken(testIdentity)
		require.NoError(t, err)

		clock.now = clock.now.Add(8 * 24 * time.Hour)
		_, err = manager.Verify(token, RefreshToken)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("zero ttl means no expiry", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
		manager := newTestManager(t, clock, func(cfg *TokenConfig) { cfg.RefreshTTL = 0 })

		token, err := manager.IssueRefreshToken(testIdentity)
		require.NoError(t, err)

		clock.now = clock.now.AddDate(5, 0, 0)
		claims, err := manager.Verify(token, RefreshToken)
		require.NoError(t, err)
		assert.Nil(t, claims.ExpiresAt)
	})
}
