package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var key = []byte("0123456789abcdef0123456789abcdef")

func TestMintAndAuthorize(t *testing.T) {
	token, err := Mint(key, "hr-ops", []string{AdminRole}, time.Minute, time.Now())
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	claims, err := Authorize(key, token, AdminRole)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if claims.Subject != "hr-ops" || claims.Issuer != Issuer {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAuthorize_Rejects(t *testing.T) {
	viewer, _ := Mint(key, "viewer", []string{"viewer"}, time.Minute, time.Now())
	expired, _ := Mint(key, "old", []string{AdminRole}, time.Minute, time.Now().Add(-time.Hour))
	otherKey, _ := Mint([]byte("another-signing-key-entirely!!!!"), "x", []string{AdminRole}, time.Minute, time.Now())
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Roles: []string{AdminRole}})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", ErrMissingToken},
		{"wrong role", viewer, ErrInsufficientPrivilege},
		{"expired", expired, ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
		{"unsigned", unsigned, ErrInvalidToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Authorize(key, tt.token, AdminRole); !errors.Is(err, tt.want) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMint_EmptyKey(t *testing.T) {
	if _, err := Mint(nil, "x", nil, 0, time.Now()); err == nil {
		t.Error("expected error for empty signing key")
	}
}
