package model

import "time"

// Schedule is a resident-defined recurring pickup rule. DaysOfWeek uses
// time.Weekday numbering (0=Sunday..6=Saturday). LastReminderDate is the
// calendar date a reminder was last sent for this schedule; it is the only
// dedup state the reminder engine keeps.
type Schedule struct {
	ID               int64      `json:"-"`
	PublicID         string     `json:"id"`
	AccountID        int64      `json:"-"`
	OwnerName        string     `json:"owner_name"`
	Address          string     `json:"address"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	WasteTypes       []string   `json:"waste_types"`
	DaysOfWeek       []int      `json:"days_of_week"`
	Enabled          bool       `json:"enabled"`
	LastReminderDate *time.Time `json:"last_reminder_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
