package auth

import (
	"context"
	"testing"
	"time"

	"hiretrack/internal/errors"
	"hiretrack/internal/types"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	user := &types.User{ID: 42, FullName: "Ada Lovelace", Email: "ada@example.com", Role: types.RoleRecruiter}
	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	p, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if p.ID != 42 || p.Email != "ada@example.com" || p.Name != "Ada Lovelace" || p.Role != types.RoleRecruiter {
		t.Errorf("Verify() principal = %+v, want user fields round-tripped", p)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	other, err := NewManager("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	user := &types.User{ID: 1, Email: "a@example.com", Role: types.RoleCandidate}
	foreign, err := other.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"wrong secret": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			if err == nil {
				t.Fatal("Verify() expected error, got nil")
			}
			appErr := errors.AsAppError(err)
			if appErr.Type != errors.ErrorTypeUnauthorized {
				t.Errorf("Verify() error = %v, want unauthorized AppError", err)
			}
		})
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, err := NewManager("test-secret", time.Nanosecond)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	token, err := m.Issue(&types.User{ID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := m.Verify(token); err == nil {
		t.Error("Verify() accepted an expired token")
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("", time.Hour); err == nil {
		t.Error("NewManager() accepted an empty secret")
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := PrincipalFrom(ctx); ok {
		t.Error("PrincipalFrom() reported a principal on an empty context")
	}

	want := Principal{ID: 7, Email: "r@example.com", Role: types.RoleAdmin}
	got, ok := PrincipalFrom(WithPrincipal(ctx, want))
	if !ok || got != want {
		t.Errorf("PrincipalFrom() = %+v, %v; want %+v, true", got, ok, want)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("HashPassword() returned the plaintext password")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("CheckPassword() rejected the correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() accepted a wrong password")
	}
}
