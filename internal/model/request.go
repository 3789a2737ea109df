package model

import "time"

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusCompleted RequestStatus = "completed"
)

// RequestKind discriminates the three submission flows that share the
// request lifecycle.
type RequestKind string

const (
	KindRegular RequestKind = "regular"
	KindBulky   RequestKind = "bulky"
	KindReport  RequestKind = "report"
)

// Request is a single pickup or problem-report submission. Requester and
// collector contact fields are denormalized copies taken at creation and
// acceptance time, so the record stays readable as history even if the
// account profile changes later.
type Request struct {
	ID             int64         `json:"-"`
	PublicID       string        `json:"id"`
	Kind           RequestKind   `json:"kind"`
	Address        string        `json:"address"`
	Latitude       *float64      `json:"latitude,omitempty"`
	Longitude      *float64      `json:"longitude,omitempty"`
	WasteTypes     []string      `json:"waste_types"`
	Description    string        `json:"description,omitempty"`
	PreferredDate  string        `json:"preferred_date,omitempty"`
	HasImage       bool          `json:"has_image,omitempty"`
	Status         RequestStatus `json:"status"`
	RequesterName  string        `json:"requester_name"`
	RequesterPhone string        `json:"requester_phone"`
	CollectorName  string        `json:"collector_name,omitempty"`
	CollectorPhone string        `json:"collector_phone,omitempty"`
	CollectorID    *int64        `json:"collector_id,omitempty"`
	AcceptedAt     *time.Time    `json:"accepted_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
