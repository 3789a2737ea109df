// Package reminder decides, once per calendar day per schedule, whether a
// day-before or day-of pickup reminder should fire.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/perchwood/curbside/internal/model"
)

// Kind distinguishes the two reminder flavors.
type Kind string

const (
	KindDayBefore Kind = "tomorrow"
	KindDayOf     Kind = "today"
)

// Event is a single reminder ready for delivery.
type Event struct {
	ScheduleID int64
	PublicID   string
	AccountID  int64
	Kind       Kind
	Title      string
	Body       string
}

// Evaluate is a pure function from the schedule set and a reference date to
// the reminders due on that date. It returns the events to emit and the ids
// of schedules whose lastReminderDate must be set to today's date.
//
// Rules, in order, per enabled schedule:
//   - a lastReminderDate equal to today's calendar date suppresses the
//     schedule for the rest of the day, whichever kind fired earlier;
//   - tomorrow's weekday in the set fires a day-before reminder;
//   - today's weekday in the set fires a day-of reminder.
//
// A schedule covering consecutive weekdays can fire both kinds in one pass.
// That is deliberate: the two notifications describe different pickups. The
// single-date marker only guards against a second evaluation pass the same
// day.
func Evaluate(schedules []model.Schedule, today time.Time) ([]Event, []int64) {
	today = startOfDay(today)
	tomorrow := today.AddDate(0, 0, 1)
	todayDay := int(today.Weekday())
	tomorrowDay := int(tomorrow.Weekday())

	var events []Event
	var fired []int64

	for _, sc := range schedules {
		if !sc.Enabled {
			continue
		}
		if sc.LastReminderDate != nil && sameDate(*sc.LastReminderDate, today) {
			continue
		}

		tags := strings.Join(sc.WasteTypes, ", ")
		sent := false

		if containsDay(sc.DaysOfWeek, tomorrowDay) {
			events = append(events, Event{
				ScheduleID: sc.ID,
				PublicID:   sc.PublicID,
				AccountID:  sc.AccountID,
				Kind:       KindDayBefore,
				Title:      "Reminder: Pickup Tomorrow!",
				Body:       fmt.Sprintf("Don't forget! Your %s pickup is scheduled for tomorrow.", tags),
			})
			sent = true
		}

		if containsDay(sc.DaysOfWeek, todayDay) {
			events = append(events, Event{
				ScheduleID: sc.ID,
				PublicID:   sc.PublicID,
				AccountID:  sc.AccountID,
				Kind:       KindDayOf,
				Title:      "Pickup Day Today!",
				Body:       fmt.Sprintf("Today is your %s pickup day. Make sure bins are ready!", tags),
			})
			sent = true
		}

		if sent {
			fired = append(fired, sc.ID)
		}
	}

	return events, fired
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
