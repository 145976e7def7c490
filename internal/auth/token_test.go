// ABOUTME: Unit tests for session token issuing and verification
// ABOUTME: Tests valid tokens, invalid tokens, expired tokens and weak secrets

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-for-jwt-signing!")

func newTestTokens(t *testing.T) *SessionTokens {
	t.Helper()
	tokens, err := NewSessionTokens(testSecret)
	if err != nil {
		t.Fatalf("NewSessionTokens() error = %v", err)
	}
	return tokens
}

func TestNewSessionTokens_WeakSecret(t *testing.T) {
	_, err := NewSessionTokens([]byte("short"))
	if !errors.Is(err, ErrWeakSecret) {
		t.Errorf("NewSessionTokens() error = %v, want ErrWeakSecret", err)
	}
}

func TestSessionTokens_ValidToken(t *testing.T) {
	tokens := newTestTokens(t)

	sessionID := "6f1c2f0e-7a0e-4a54-9d59-3b8f2a7c1e11"
	token, err := tokens.Issue(sessionID, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	gotID, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if gotID != sessionID {
		t.Errorf("Verify() = %q, want %q", gotID, sessionID)
	}
}

func TestSessionTokens_InvalidToken(t *testing.T) {
	tokens := newTestTokens(t)

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "garbage token",
			token: "not-a-jwt-token",
		},
		{
			name:  "malformed JWT",
			token: "header.payload.signature",
		},
		{
			name: "wrong secret",
			token: func() string {
				other, _ := NewSessionTokens([]byte("a-completely-different-secret-!!"))
				token, _ := other.Issue("session-123", time.Hour)
				return token
			}(),
		},
		{
			name: "none algorithm",
			token: func() string {
				token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
					"sub": "session-123",
					"exp": time.Now().Add(time.Hour).Unix(),
				})
				s, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
				return s
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestSessionTokens_ExpiredToken(t *testing.T) {
	tokens := newTestTokens(t)

	// Issue a token that expired 1 hour ago
	token, err := tokens.Issue("session-123", -time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = tokens.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestSessionTokens_MissingSubject(t *testing.T) {
	tokens := newTestTokens(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, err = tokens.Verify(signed)
	if !errors.Is(err, ErrMissingClaim) {
		t.Errorf("Verify() error = %v, want ErrMissingClaim", err)
	}
}
