package reminder

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/perchwood/curbside/internal/database"
	"github.com/perchwood/curbside/internal/model"
	"github.com/perchwood/curbside/internal/store"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) Notify(accountID int64, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, title)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func setupEngine(t *testing.T) (*Engine, *store.ScheduleStore, *store.AccountStore, *recordingNotifier) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	schedules := store.NewScheduleStore(db)
	accounts := store.NewAccountStore(db)
	notifier := &recordingNotifier{}
	return NewEngine(schedules, notifier, time.UTC, logger), schedules, accounts, notifier
}

func everyDaySchedule(t *testing.T, schedules *store.ScheduleStore, accountID int64) *model.Schedule {
	t.Helper()
	sc, err := schedules.Create(&model.Schedule{
		AccountID:  accountID,
		OwnerName:  "Alice",
		Address:    "12 Oak St",
		WasteTypes: []string{"household"},
		DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	return sc
}

func TestEngineTickNotifiesAndPersistsMarker(t *testing.T) {
	engine, schedules, accounts, notifier := setupEngine(t)

	a, err := accounts.Create("alice@example.com", "hash", model.RoleResident, "", "", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	sc := everyDaySchedule(t, schedules, a.ID)

	// An every-day schedule fires both reminder kinds on any date.
	engine.tick()
	if got := notifier.count(); got != 2 {
		t.Fatalf("notifications = %d, want 2", got)
	}

	stored, err := schedules.GetByID(sc.ID)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if stored.LastReminderDate == nil {
		t.Fatal("expected reminder marker after tick")
	}

	// The marker suppresses a second pass the same day.
	engine.tick()
	if got := notifier.count(); got != 2 {
		t.Errorf("notifications after second tick = %d, want still 2", got)
	}
}

func TestEngineKickTriggersEvaluation(t *testing.T) {
	engine, schedules, accounts, notifier := setupEngine(t)

	a, err := accounts.Create("alice@example.com", "hash", model.RoleResident, "", "", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	everyDaySchedule(t, schedules, a.ID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	engine.Kick()

	deadline := time.After(2 * time.Second)
	for notifier.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("notifications = %d, want 2 before deadline", notifier.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestEngineStopIsIdempotentBeforeStart(t *testing.T) {
	engine, _, _, _ := setupEngine(t)
	// Stop before Start must not panic or block.
	engine.Stop()
}
