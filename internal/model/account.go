package model

import "time"

// Account roles.
const (
	RoleResident  = "resident"
	RoleCollector = "collector"
)

type Account struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileComplete reports whether the account has the contact details a
// collector must provide before accepting jobs.
func (a *Account) ProfileComplete() bool {
	return a.Name != "" && a.Phone != ""
}
