package util

import (
	"testing"
	"time"

	"enem_quiz_backend/internal/model"
)

func TestGenerateAndParseJWT(t *testing.T) {
	user := &model.User{Email: "aluno@example.com", Name: "aluno"}
	user.ID = "0b6e2c1a-0000-4000-8000-000000000001"

	token, claims, err := GenerateJWT(user, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti")
	}

	parsed, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.UserID != user.ID || parsed.Email != user.Email || parsed.ID != claims.ID {
		t.Fatalf("unexpected claims %+v", parsed)
	}
	if ttl := parsed.TokenTTL(); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseJWTRejectsExpired(t *testing.T) {
	user := &model.User{Email: "a@b.c"}
	user.ID = "u1"
	token, _, err := GenerateJWT(user, "s", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseJWT(token, "s"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("12", 1) != 12 || ParseIntDefault("", 3) != 3 || ParseIntDefault("x", 4) != 4 {
		t.Fatal("unexpected conversion")
	}
}
