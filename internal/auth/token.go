package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed payloads, algorithm or type mismatch.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned only for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenKind selects which secret signs or verifies a token.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

const DefaultAccessTTL = 24 * time.Hour

// Identity is the claim set copied from the user record at mint time.
type Identity struct {
	UserID   int64
	Email    string
	Username string
}

type Claims struct {
	UserID   int64     `json:"userId"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Type     TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Username: c.Username}
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	// RefreshTTL of zero mints refresh tokens without an exp claim.
	RefreshTTL time.Duration
	ClockSkew  time.Duration
}

type TokenOption func(*TokenManager)

// WithClock replaces time.Now for minting and verification.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// TokenManager mints and verifies HS256 access and refresh tokens. It holds no
// per-request state and is safe for concurrent use.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clockSkew     time.Duration
	now           func() time.Time
}

func NewTokenManager(cfg TokenConfig, opts ...TokenOption) (*TokenManager, error) {
	access := strings.TrimSpace(cfg.AccessSecret)
	refresh := strings.TrimSpace(cfg.RefreshSecret)
	if access == "" || refresh == "" {
		return nil, errors.New("access and refresh token secrets are required")
	}
	if access == refresh {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL < 0 {
		return nil, errors.New("refresh token ttl cannot be negative")
	}
	if cfg.ClockSkew < 0 {
		cfg.ClockSkew = 0
	}

	m := &TokenManager{
		accessSecret:  []byte(access),
		refreshSecret: []byte(refresh),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		clockSkew:     cfg.ClockSkew,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *TokenManager) IssueAccessToken(identity Identity) (string, error) {
	return m.issue(identity, AccessToken)
}

func (m *TokenManager) IssueRefreshToken(identity Identity) (string, error) {
	return m.issue(identity, RefreshToken)
}

func (m *TokenManager) issue(identity Identity, kind TokenKind) (string, error) {
	if identity.UserID <= 0 {
		return "", errors.New("identity has no user id")
	}

	now := m.now().UTC()
	claims := Claims{
		UserID:   identity.UserID,
		Email:    identity.Email,
		Username: identity.Username,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if ttl := m.ttl(kind); ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret(kind))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, nil
}

// Verify checks the signature against the secret of kind, then expiry and token type.
// Errors wrap ErrTokenExpired or ErrTokenInvalid together with the jwt cause.
func (m *TokenManager) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	if kind != AccessToken && kind != RefreshToken {
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrTokenInvalid, kind)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuedAt(),
	}
	if m.ttl(kind) > 0 {
		options = append(options, jwt.WithExpirationRequired())
	}

	claims := &Claims{}
	secret := m.secret(kind)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Type != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, kind, claims.Type)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing userId claim", ErrTokenInvalid)
	}

	return claims, nil
}

func (m *TokenManager) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return m.refreshSecret
	}
	return m.accessSecret
}

func (m *TokenManager) ttl(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return m.refreshTTL
	}
	return m.accessTTL
}
