// Package lifecycle owns the pickup-request state machine:
// pending -> accepted -> completed, one direction only.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/perchwood/curbside/internal/model"
	"github.com/perchwood/curbside/internal/store"
)

var (
	// ErrNotFound means no request exists for the given id.
	ErrNotFound = errors.New("request not found")

	// ErrInvalidTransition means the request is no longer in a state that
	// permits the attempted transition, e.g. another collector got there
	// first or the job is already done.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrIncompleteProfile means the collector has not filled in the name
	// and phone the resident needs to see on an accepted job.
	ErrIncompleteProfile = errors.New("collector profile incomplete")

	// ErrNotAcceptor means an account other than the one that accepted the
	// job tried to complete it.
	ErrNotAcceptor = errors.New("only the accepting collector may complete this request")

	// ErrNoWasteTypes rejects submissions without at least one waste tag.
	ErrNoWasteTypes = errors.New("at least one waste type is required")
)

const (
	defaultAddress = "Unknown"
	defaultName    = "Anonymous"
	defaultPhone   = "Not provided"
)

// Manager enforces request transitions and stamps attribution. All writes
// go through conditional store updates, so concurrent actors cannot push a
// request backward or double-claim it.
type Manager struct {
	requests *store.RequestStore
	accounts *store.AccountStore
	logger   *slog.Logger
}

func NewManager(requests *store.RequestStore, accounts *store.AccountStore, logger *slog.Logger) *Manager {
	return &Manager{requests: requests, accounts: accounts, logger: logger}
}

// CreateInput carries everything a resident submits. Blank contact fields
// fall back to the anonymous defaults rather than failing.
type CreateInput struct {
	Kind           model.RequestKind
	Address        string
	Latitude       *float64
	Longitude      *float64
	WasteTypes     []string
	Description    string
	PreferredDate  string
	HasImage       bool
	RequesterName  string
	RequesterPhone string
}

func (m *Manager) Create(in CreateInput) (*model.Request, error) {
	tags := make([]string, 0, len(in.WasteTypes))
	for _, t := range in.WasteTypes {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil, ErrNoWasteTypes
	}

	kind := in.Kind
	if kind == "" {
		kind = model.KindRegular
	}
	switch kind {
	case model.KindRegular, model.KindBulky, model.KindReport:
	default:
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}

	r := &model.Request{
		Kind:           kind,
		Address:        strings.TrimSpace(in.Address),
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		WasteTypes:     tags,
		Description:    strings.TrimSpace(in.Description),
		PreferredDate:  in.PreferredDate,
		HasImage:       in.HasImage,
		RequesterName:  strings.TrimSpace(in.RequesterName),
		RequesterPhone: strings.TrimSpace(in.RequesterPhone),
	}
	if r.Address == "" {
		r.Address = defaultAddress
	}
	if r.RequesterName == "" {
		r.RequesterName = defaultName
	}
	if r.RequesterPhone == "" {
		r.RequesterPhone = defaultPhone
	}

	created, err := m.requests.Create(r)
	if err != nil {
		return nil, err
	}

	m.logger.Info("request created", "request_id", created.PublicID, "kind", created.Kind)
	return created, nil
}

// Accept claims a pending request for a collector. The collector must have
// a complete profile; the request must still be pending.
func (m *Manager) Accept(publicID string, collectorID int64) (*model.Request, error) {
	collector, err := m.accounts.GetByID(collectorID)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		return nil, fmt.Errorf("account %d not found", collectorID)
	}
	if !collector.ProfileComplete() {
		return nil, ErrIncompleteProfile
	}

	existing, err := m.requests.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	ok, err := m.requests.Accept(publicID, collector.ID, collector.Name, collector.Phone, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// The row existed a moment ago, so the condition that failed is
		// the status check: someone else accepted first.
		return nil, ErrInvalidTransition
	}

	m.logger.Info("request accepted", "request_id", publicID, "collector_id", collector.ID)
	return m.requests.GetByPublicID(publicID)
}

// Complete marks an accepted request done. Only the account stamped at
// acceptance time is authorized.
func (m *Manager) Complete(publicID string, collectorID int64) (*model.Request, error) {
	existing, err := m.requests.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.Status == model.StatusAccepted && (existing.CollectorID == nil || *existing.CollectorID != collectorID) {
		return nil, ErrNotAcceptor
	}

	ok, err := m.requests.Complete(publicID, collectorID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	m.logger.Info("request completed", "request_id", publicID, "collector_id", collectorID)
	return m.requests.GetByPublicID(publicID)
}

// ListByStatus returns requests for dashboards, newest activity first.
// An empty status returns everything.
func (m *Manager) ListByStatus(status model.RequestStatus) ([]model.Request, error) {
	return m.requests.ListByStatus(status)
}
