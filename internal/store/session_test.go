package store

import (
	"testing"

	"github.com/perchwood/curbside/internal/model"
)

func createTestAccount(t *testing.T, s *AccountStore, email string) *model.Account {
	t.Helper()
	a, err := s.Create(email, "hash", model.RoleResident, "", "", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func TestSessionCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	accounts := NewAccountStore(db)
	sessions := NewSessionStore(db)

	a := createTestAccount(t, accounts, "alice@example.com")

	sess, err := sessions.Create(a.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.AccountID != a.ID {
		t.Errorf("account id = %d, want %d", got.AccountID, a.ID)
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	sessions := NewSessionStore(setupTestDB(t))

	got, err := sessions.GetByToken("no-such-token")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionDelete(t *testing.T) {
	db := setupTestDB(t)
	accounts := NewAccountStore(db)
	sessions := NewSessionStore(db)

	a := createTestAccount(t, accounts, "bob@example.com")
	sess, err := sessions.Create(a.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := sessions.Delete(sess.Token); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionTokensUnique(t *testing.T) {
	db := setupTestDB(t)
	accounts := NewAccountStore(db)
	sessions := NewSessionStore(db)

	a := createTestAccount(t, accounts, "carol@example.com")

	s1, err := sessions.Create(a.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	s2, err := sessions.Create(a.ID)
	if err != nil {
		t.Fatalf("create second session: %v", err)
	}
	if s1.Token == s2.Token {
		t.Error("expected distinct tokens for separate sessions")
	}
}
