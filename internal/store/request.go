package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/perchwood/curbside/internal/model"
)

type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

// waste type sets and weekday sets are stored as JSON arrays in TEXT columns
func encodeStrings(vals []string) (string, error) {
	data, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStrings(raw string) ([]string, error) {
	var vals []string
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return vals, nil
}

func scanRequest(scanner interface{ Scan(...any) error }) (*model.Request, error) {
	var r model.Request
	var lat, lng sql.NullFloat64
	var collectorID sql.NullInt64
	var acceptedAt, completedAt sql.NullTime
	var wasteTypes string

	err := scanner.Scan(
		&r.ID, &r.PublicID, &r.Kind, &r.Address, &lat, &lng, &wasteTypes,
		&r.Description, &r.PreferredDate, &r.HasImage, &r.Status,
		&r.RequesterName, &r.RequesterPhone,
		&r.CollectorName, &r.CollectorPhone, &collectorID,
		&acceptedAt, &completedAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lng.Valid {
		r.Longitude = &lng.Float64
	}
	if collectorID.Valid {
		r.CollectorID = &collectorID.Int64
	}
	if acceptedAt.Valid {
		t := acceptedAt.Time
		r.AcceptedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}

	tags, err := decodeStrings(wasteTypes)
	if err != nil {
		return nil, err
	}
	r.WasteTypes = tags

	return &r, nil
}

const requestCols = `id, public_id, kind, address, latitude, longitude, waste_types,
	description, preferred_date, has_image, status,
	requester_name, requester_phone,
	collector_name, collector_phone, collector_id,
	accepted_at, completed_at, created_at`

func (s *RequestStore) Create(r *model.Request) (*model.Request, error) {
	tags, err := encodeStrings(r.WasteTypes)
	if err != nil {
		return nil, err
	}

	var lat, lng sql.NullFloat64
	if r.Latitude != nil {
		lat = sql.NullFloat64{Float64: *r.Latitude, Valid: true}
	}
	if r.Longitude != nil {
		lng = sql.NullFloat64{Float64: *r.Longitude, Valid: true}
	}

	publicID := uuid.NewString()
	result, err := s.db.Exec(
		`INSERT INTO requests (public_id, kind, address, latitude, longitude, waste_types,
			description, preferred_date, has_image, requester_name, requester_phone)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		publicID, r.Kind, r.Address, lat, lng, tags,
		r.Description, r.PreferredDate, r.HasImage, r.RequesterName, r.RequesterPhone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RequestStore) GetByID(id int64) (*model.Request, error) {
	row := s.db.QueryRow(`SELECT `+requestCols+` FROM requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

func (s *RequestStore) GetByPublicID(publicID string) (*model.Request, error) {
	row := s.db.QueryRow(`SELECT `+requestCols+` FROM requests WHERE public_id = ?`, publicID)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request by public id: %w", err)
	}
	return r, nil
}

// ListByStatus returns requests newest-activity-first: completion time if
// completed, else acceptance time, else creation time. An empty status
// returns every request.
func (s *RequestStore) ListByStatus(status model.RequestStatus) ([]model.Request, error) {
	query := `SELECT ` + requestCols + ` FROM requests`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY COALESCE(completed_at, accepted_at, created_at) DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// Accept transitions a request from pending to accepted, stamping collector
// attribution. The write is conditional on the current status, so two
// collectors racing for the same job cannot both win: the second write
// matches zero rows and returns false.
func (s *RequestStore) Accept(publicID string, collectorID int64, name, phone string, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE requests
		 SET status = ?, collector_name = ?, collector_phone = ?, collector_id = ?, accepted_at = ?
		 WHERE public_id = ? AND status = ?`,
		model.StatusAccepted, name, phone, collectorID, at.UTC(), publicID, model.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("accept request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// Complete transitions a request from accepted to completed. Conditional on
// both the current status and the acceptor's id, same reasoning as Accept.
func (s *RequestStore) Complete(publicID string, collectorID int64, at time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE requests SET status = ?, completed_at = ?
		 WHERE public_id = ? AND status = ? AND collector_id = ?`,
		model.StatusCompleted, at.UTC(), publicID, model.StatusAccepted, collectorID,
	)
	if err != nil {
		return false, fmt.Errorf("complete request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// CountByStatus returns the number of requests per status for dashboards.
func (s *RequestStore) CountByStatus() (map[model.RequestStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.RequestStatus]int)
	for rows.Next() {
		var status model.RequestStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
