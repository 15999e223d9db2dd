package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token that is malformed, tampered with, expired,
// or signed for a different kind.
var ErrInvalidToken = errors.New("invalid token")

// TokenKind selects which secret and TTL a token is issued and verified with.
type TokenKind int

const (
	KindAccess TokenKind = iota
	KindRefresh
)

const tokenIssuer = "snapstream"

// TokenIssuer signs and verifies the access/refresh token pair. Access tokens
// are stateless; refresh tokens additionally live in the user record's
// single slot, which the session Manager checks.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	// NowFunc overrides the time source in tests.
	NowFunc func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with per-kind secrets and TTLs.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess signs a short-lived access token embedding the user id.
func (t *TokenIssuer) IssueAccess(userID string) (string, time.Time, error) {
	return t.issue(userID, t.accessSecret, t.accessTTL)
}

// IssueRefresh signs a longer-lived refresh token embedding the user id.
func (t *TokenIssuer) IssueRefresh(userID string) (string, time.Time, error) {
	return t.issue(userID, t.refreshSecret, t.refreshTTL)
}

func (t *TokenIssuer) issue(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := t.now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of a token of the given kind and
// returns the embedded user id.
func (t *TokenIssuer) Verify(token string, kind TokenKind) (string, error) {
	secret := t.accessSecret
	if kind == KindRefresh {
		secret = t.refreshSecret
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if tok.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Method.Alg())
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

func (t *TokenIssuer) now() time.Time {
	if t.NowFunc != nil {
		return t.NowFunc()
	}
	return time.Now().UTC()
}
