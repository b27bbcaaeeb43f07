package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/appointment-service/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)

	token, exp, err := tm.GenerateToken("user-1", domain.RoleDoctor)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("token already expired")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "user-1" {
		t.Fatalf("subject %q", claims.SubjectID)
	}
	if claims.Role != domain.RoleDoctor {
		t.Fatalf("role %q", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("token has no jti; sessions would be unrevocable")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 5).GenerateToken("user-1", domain.RolePatient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 5).ParseToken(token); err == nil {
		t.Fatal("token accepted with wrong secret")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)
	if _, err := tm.ParseToken("demo-jwt-token"); err == nil {
		t.Fatal("placeholder string accepted as token")
	}
}

func TestTokensCarryUniqueIDs(t *testing.T) {
	tm := NewTokenManager("test-secret", 5)
	first, _, _ := tm.GenerateToken("user-1", domain.RolePatient)
	second, _, _ := tm.GenerateToken("user-1", domain.RolePatient)

	a, err := tm.ParseToken(first)
	if err != nil {
		t.Fatalf("parse first: %v", err)
	}
	b, err := tm.ParseToken(second)
	if err != nil {
		t.Fatalf("parse second: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("two sessions share a jti")
	}
}
