package auth

import (
	"testing"
	"time"

	"github.com/jvidmar/kljucar/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "alice", "Alice", model.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	actor := claims.Actor()
	if actor.ID != "alice" {
		t.Errorf("expected actor id 'alice', got %q", actor.ID)
	}
	if actor.Name != "Alice" {
		t.Errorf("expected name 'Alice', got %q", actor.Name)
	}
	if actor.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %q", actor.Role)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "root", "Root", model.RoleAdmin)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenMissingSubject(t *testing.T) {
	token, _ := GenerateToken("secret", "", "Nobody", model.RoleUser)

	_, err := ValidateToken("secret", token)
	if err == nil {
		t.Error("expected error for token without subject")
	}
}

func TestTokenExpiry(t *testing.T) {
	// Just verify the expiry is set correctly.
	secret := "test"
	token, _ := GenerateToken(secret, "alice", "Alice", model.RoleUser)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(TokenExpiry)

	// Should be within a few seconds.
	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
