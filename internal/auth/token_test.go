// ABOUTME: Tests for JWT verification: round-trip, expiry, tampering, alg confusion
// ABOUTME: Uses a fixed test secret throughout

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-for-auth-tests")

func TestVerify_RoundTrip(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	token, err := v.Generate("account-123", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	accountID, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if accountID != "account-123" {
		t.Errorf("accountID = %q, want %q", accountID, "account-123")
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	token, err := v.Generate("account-123", -time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	other := NewJWTVerifier([]byte("a-different-secret"))

	token, err := other.Generate("account-123", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	token, err := v.Generate("account-123", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	tampered := strings.Join(parts, ".")

	if _, err := v.Verify(tampered); err == nil {
		t.Error("Verify() accepted a tampered token")
	}
}

func TestVerify_MissingSubClaim(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, ErrMissingClaim) {
		t.Errorf("Verify() error = %v, want ErrMissingClaim", err)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "account-123"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := v.Verify(signed); err == nil {
		t.Error("Verify() accepted an unsigned token")
	}
}

func TestVerify_Garbage(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	if _, err := v.Verify("not.a.token"); err == nil {
		t.Error("Verify() accepted garbage input")
	}
}
