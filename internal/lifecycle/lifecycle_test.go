package lifecycle

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/perchwood/curbside/internal/database"
	"github.com/perchwood/curbside/internal/model"
	"github.com/perchwood/curbside/internal/store"
)

func setupManager(t *testing.T) (*Manager, *store.AccountStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := store.NewAccountStore(db)
	requests := store.NewRequestStore(db)
	return NewManager(requests, accounts, logger), accounts
}

func createCollector(t *testing.T, accounts *store.AccountStore, email, name, phone string) *model.Account {
	t.Helper()
	a, err := accounts.Create(email, "hash", model.RoleCollector, name, phone, "")
	if err != nil {
		t.Fatalf("create collector: %v", err)
	}
	return a
}

func TestCreateAppliesDefaults(t *testing.T) {
	m, _ := setupManager(t)

	r, err := m.Create(CreateInput{WasteTypes: []string{"household"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Kind != model.KindRegular {
		t.Errorf("kind = %q, want %q", r.Kind, model.KindRegular)
	}
	if r.Address != "Unknown" {
		t.Errorf("address = %q, want Unknown", r.Address)
	}
	if r.RequesterName != "Anonymous" {
		t.Errorf("requester name = %q, want Anonymous", r.RequesterName)
	}
	if r.RequesterPhone != "Not provided" {
		t.Errorf("requester phone = %q, want Not provided", r.RequesterPhone)
	}
	if r.Status != model.StatusPending {
		t.Errorf("status = %q, want %q", r.Status, model.StatusPending)
	}
}

func TestCreateRejectsEmptyWasteTypes(t *testing.T) {
	m, _ := setupManager(t)

	if _, err := m.Create(CreateInput{}); !errors.Is(err, ErrNoWasteTypes) {
		t.Errorf("err = %v, want ErrNoWasteTypes", err)
	}
	// Whitespace-only tags count as empty.
	if _, err := m.Create(CreateInput{WasteTypes: []string{"  ", ""}}); !errors.Is(err, ErrNoWasteTypes) {
		t.Errorf("err = %v, want ErrNoWasteTypes", err)
	}
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	m, _ := setupManager(t)

	if _, err := m.Create(CreateInput{Kind: "mystery", WasteTypes: []string{"household"}}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestAcceptRequiresCompleteProfile(t *testing.T) {
	m, accounts := setupManager(t)

	bare := createCollector(t, accounts, "bare@example.com", "", "")
	r, err := m.Create(CreateInput{WasteTypes: []string{"household"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := m.Accept(r.PublicID, bare.ID); !errors.Is(err, ErrIncompleteProfile) {
		t.Errorf("err = %v, want ErrIncompleteProfile", err)
	}

	got, _ := m.requests.GetByPublicID(r.PublicID)
	if got.Status != model.StatusPending {
		t.Errorf("status = %q, want still pending", got.Status)
	}
}

func TestAcceptStampsCollector(t *testing.T) {
	m, accounts := setupManager(t)

	c := createCollector(t, accounts, "bob@example.com", "Bob", "555-0101")
	r, err := m.Create(CreateInput{WasteTypes: []string{"household"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	accepted, err := m.Accept(r.PublicID, c.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != model.StatusAccepted {
		t.Errorf("status = %q, want %q", accepted.Status, model.StatusAccepted)
	}
	if accepted.CollectorName != "Bob" || accepted.CollectorPhone != "555-0101" {
		t.Errorf("collector = %q/%q, want Bob/555-0101", accepted.CollectorName, accepted.CollectorPhone)
	}
	if accepted.AcceptedAt == nil {
		t.Error("expected accepted_at to be set")
	}
}

func TestAcceptNotFound(t *testing.T) {
	m, accounts := setupManager(t)

	c := createCollector(t, accounts, "bob@example.com", "Bob", "555-0101")
	if _, err := m.Accept("no-such-id", c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAcceptAlreadyAccepted(t *testing.T) {
	m, accounts := setupManager(t)

	c1 := createCollector(t, accounts, "bob@example.com", "Bob", "555-0101")
	c2 := createCollector(t, accounts, "carl@example.com", "Carl", "555-0102")
	r, err := m.Create(CreateInput{WasteTypes: []string{"household"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := m.Accept(r.PublicID, c1.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if _, err := m.Accept(r.PublicID, c2.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestCompleteOnlyByAcceptor(t *testing.T) {
	m, accounts := setupManager(t)

	c1 := createCollector(t, accounts, "bob@example.com", "Bob", "555-0101")
	c2 := createCollector(t, accounts, "carl@example.com", "Carl", "555-0102")
	r, err := m.Create(CreateInput{WasteTypes: []string{"household"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Accept(r.PublicID, c1.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := m.Complete(r.PublicID, c2.ID); !errors.Is(err, ErrNotAcceptor) {
		t.Errorf("err = %v, want ErrNotAcceptor", err)
	}

	done, err := m.Complete(r.PublicID, c1.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Errorf("status = %q, want %q", done.Status, model.StatusCompleted)
	}
	if done.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestCompletePendingFails(t *testing.T) {
	m, accounts := setupManager(t)

	c := createCollector(t, accounts, "bob@example.com", "Bob", "555-0101")
	r, err := m.Create(CreateInput{WasteTypes: []string{"household"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := m.Complete(r.PublicID, c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestCompleteTwiceFails(t *testing.T) {
	m, accounts := setupManager(t)

	c := createCollector(t, accounts, "bob@example.com", "Bob", "555-0101")
	r, err := m.Create(CreateInput{WasteTypes: []string{"household"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Accept(r.PublicID, c.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := m.Complete(r.PublicID, c.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := m.Complete(r.PublicID, c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestCreateTrimsWasteTags(t *testing.T) {
	m, _ := setupManager(t)

	r, err := m.Create(CreateInput{WasteTypes: []string{" household ", "", "recycling"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(r.WasteTypes) != 2 {
		t.Fatalf("waste types = %v, want 2 entries", r.WasteTypes)
	}
	if r.WasteTypes[0] != "household" || r.WasteTypes[1] != "recycling" {
		t.Errorf("waste types = %v", r.WasteTypes)
	}
}
