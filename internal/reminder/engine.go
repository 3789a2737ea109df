package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/perchwood/curbside/internal/store"
)

// Notifier delivers a reminder to every surface an account has registered.
// Delivery is best effort; a notifier must not block the engine for long.
type Notifier interface {
	Notify(accountID int64, title, body string)
}

// Engine re-evaluates the schedule set whenever the data changes (Kick) and
// on a periodic tick as a fallback. The reference system drove this from a
// live store subscription; here the mutation path kicks the engine directly.
type Engine struct {
	mu        sync.RWMutex
	schedules *store.ScheduleStore
	notifier  Notifier
	loc       *time.Location
	interval  time.Duration
	kick      chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	logger    *slog.Logger
}

func NewEngine(schedules *store.ScheduleStore, notifier Notifier, loc *time.Location, logger *slog.Logger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		schedules: schedules,
		notifier:  notifier,
		loc:       loc,
		interval:  time.Hour,
		kick:      make(chan struct{}, 1),
		logger:    logger,
	}
}

// Start begins the evaluation loop.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	e.mu.Unlock()

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.tick()
			case <-e.kick:
				e.tick()
			}
		}
	}()
}

// Stop gracefully stops the engine.
func (e *Engine) Stop() {
	e.mu.RLock()
	cancel := e.cancel
	done := e.done
	e.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Kick requests an immediate evaluation pass. Called after schedule
// mutations; coalesces if a pass is already queued.
func (e *Engine) Kick() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) tick() {
	schedules, err := e.schedules.ListEnabled()
	if err != nil {
		e.logger.Error("list schedules", "error", err)
		return
	}
	if len(schedules) == 0 {
		return
	}

	today := time.Now().In(e.loc)
	events, fired := Evaluate(schedules, today)

	for _, ev := range events {
		e.notifier.Notify(ev.AccountID, ev.Title, ev.Body)
		e.logger.Info("reminder sent", "schedule_id", ev.PublicID, "kind", ev.Kind)
	}

	// Markers persist after delivery. If a write fails the schedule will
	// re-notify on the next pass, which is the at-least-once behavior we
	// want for reminders.
	for _, id := range fired {
		if err := e.schedules.SetLastReminderDate(id, today); err != nil {
			e.logger.Error("persist reminder marker", "schedule_id", id, "error", err)
		}
	}
}
