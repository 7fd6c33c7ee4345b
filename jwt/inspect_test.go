package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("client-cannot-see-this"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestInspectReadsRegisteredClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tok := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "auth",
		ID:        "jti-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	claims, err := Inspect(tok)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Subject != "user-1" || claims.Issuer != "auth" || claims.ID != "jti-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
	if claims.Expired(now, 0) {
		t.Fatal("token must not be expired yet")
	}
}

func TestInspectDoesNotRequireValidExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	tok := signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(past)})

	claims, err := Inspect(tok)
	if err != nil {
		t.Fatalf("expired token must still decode: %v", err)
	}
	if !claims.Expired(time.Now(), 0) {
		t.Fatal("expected expired")
	}
	if claims.Expired(time.Now(), 2*time.Hour) {
		t.Fatal("leeway must extend validity")
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b", "not.a.jwt"} {
		if _, err := Inspect(tok); !errors.Is(err, ErrNotJWT) {
			t.Fatalf("token %q: expected ErrNotJWT, got %v", tok, err)
		}
	}
}

func TestClaimsWithoutExpiryNeverExpire(t *testing.T) {
	var c Claims
	if c.HasExpiry() || c.Expired(time.Now(), 0) {
		t.Fatal("claims without exp must not expire")
	}
}
