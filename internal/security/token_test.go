package security

import (
	"testing"
	"time"

	"ecolearn/internal/models"
)

const testSecret = "unit-test-secret-0123456789"

func TestNewTokenIssuer(t *testing.T) {
	if _, err := NewTokenIssuer("short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
	if _, err := NewTokenIssuer(testSecret, 0); err == nil {
		t.Error("expected error for zero ttl")
	}
	if _, err := NewTokenIssuer(testSecret, time.Hour); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	token, err := issuer.Issue(42, "eco_kid", models.RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Username != "eco_kid" {
		t.Errorf("Username = %q, want %q", claims.Username, "eco_kid")
	}
	if claims.Role != models.RoleStudent {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleStudent)
	}
	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if userID != 42 {
		t.Errorf("UserID = %d, want 42", userID)
	}
	if claims.ID == "" {
		t.Error("expected a token id claim")
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	if _, err := issuer.Verify("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}

	other, err := NewTokenIssuer("a-different-secret-value!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := other.Issue(1, "intruder", models.RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Millisecond)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := issuer.Issue(7, "soon_gone", models.RoleTeacher)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := issuer.Verify(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("squirrel-acorn-42")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "squirrel-acorn-42" {
		t.Error("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "squirrel-acorn-42") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Error("expected wrong password to fail")
	}
	if CheckPassword("", "anything") {
		t.Error("expected empty hash to fail")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
