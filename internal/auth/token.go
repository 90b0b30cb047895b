package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer    = "triage-admin"
	AdminRole = "admin"

	DefaultTTL = 1 * time.Hour
)

var (
	ErrMissingToken          = errors.New("login required")
	ErrInvalidToken          = errors.New("invalid session token")
	ErrInsufficientPrivilege = errors.New("insufficient privileges")
)

// Claims of an admin session token.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token grants role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Mint signs an HS256 session token for subject.
func Mint(signingKey []byte, subject string, roles []string, ttl time.Duration, now time.Time) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("signing key is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token signed with signingKey.
func Parse(signingKey []byte, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

// Authorize verifies token and requires role.
func Authorize(signingKey []byte, token, role string) (*Claims, error) {
	claims, err := Parse(signingKey, token)
	if err != nil {
		return nil, err
	}
	if !claims.HasRole(role) {
		return nil, ErrInsufficientPrivilege
	}
	return claims, nil
}
