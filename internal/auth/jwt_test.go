package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"stockgate/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)

	token, err := ti.Issue("user-1", "admin@test.com", models.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "admin@test.com" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %s", got)
	}
}

func TestVerifyExpired(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	ti.now = func() time.Time { return issuedAt }

	token, err := ti.Issue("user-1", "u@test.com", models.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ti.now = time.Now
	if _, err := ti.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	token, err := ti.Issue("user-1", "u@test.com", models.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Re-sign an escalated payload with another key and splice the original
	// header and signature around it.
	forged, err := NewTokenIssuer(strings.Repeat("x", 32), time.Hour).Issue("user-1", "u@test.com", models.RoleAdmin)
	if err != nil {
		t.Fatalf("issue forged: %v", err)
	}
	orig := strings.Split(token, ".")
	fake := strings.Split(forged, ".")
	tampered := orig[0] + "." + fake[1] + "." + orig[2]

	if _, err := ti.Verify(tampered); !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
	if _, err := ti.Verify(forged); !errors.Is(err, ErrTokenInvalidSignature) {
		t.Fatalf("expected ErrTokenInvalidSignature for foreign key, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		if _, err := ti.Verify(tok); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Verify(%q): expected ErrTokenMalformed, got %v", tok, err)
		}
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	claims := &JWTCustomClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ti.Verify(unsigned); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	token, err := ti.Issue("user-1", "u@test.com", models.UserRole("root"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ti.Verify(token); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}
