package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/perchwood/curbside/internal/model"
)

// reminderDateLayout is the calendar-date format for the dedup marker.
// Only the date matters, never the instant.
const reminderDateLayout = "2006-01-02"

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.Schedule, error) {
	var sc model.Schedule
	var lat, lng sql.NullFloat64
	var wasteTypes, daysOfWeek string
	var lastReminder sql.NullString

	err := scanner.Scan(
		&sc.ID, &sc.PublicID, &sc.AccountID, &sc.OwnerName, &sc.Address,
		&lat, &lng, &wasteTypes, &daysOfWeek, &sc.Enabled, &lastReminder, &sc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		sc.Latitude = &lat.Float64
	}
	if lng.Valid {
		sc.Longitude = &lng.Float64
	}
	if lastReminder.Valid {
		t, err := time.Parse(reminderDateLayout, lastReminder.String)
		if err != nil {
			return nil, fmt.Errorf("parse last reminder date: %w", err)
		}
		sc.LastReminderDate = &t
	}

	tags, err := decodeStrings(wasteTypes)
	if err != nil {
		return nil, err
	}
	sc.WasteTypes = tags

	if err := json.Unmarshal([]byte(daysOfWeek), &sc.DaysOfWeek); err != nil {
		return nil, fmt.Errorf("decode days of week: %w", err)
	}

	return &sc, nil
}

const scheduleCols = `id, public_id, account_id, owner_name, address,
	latitude, longitude, waste_types, days_of_week, enabled, last_reminder_date, created_at`

func (s *ScheduleStore) Create(sc *model.Schedule) (*model.Schedule, error) {
	tags, err := encodeStrings(sc.WasteTypes)
	if err != nil {
		return nil, err
	}
	days, err := json.Marshal(sc.DaysOfWeek)
	if err != nil {
		return nil, fmt.Errorf("encode days of week: %w", err)
	}

	var lat, lng sql.NullFloat64
	if sc.Latitude != nil {
		lat = sql.NullFloat64{Float64: *sc.Latitude, Valid: true}
	}
	if sc.Longitude != nil {
		lng = sql.NullFloat64{Float64: *sc.Longitude, Valid: true}
	}

	publicID := uuid.NewString()
	result, err := s.db.Exec(
		`INSERT INTO schedules (public_id, account_id, owner_name, address, latitude, longitude,
			waste_types, days_of_week, enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		publicID, sc.AccountID, sc.OwnerName, sc.Address, lat, lng, tags, string(days),
	)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ScheduleStore) GetByID(id int64) (*model.Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	sc, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sc, nil
}

func (s *ScheduleStore) GetByPublicID(publicID string) (*model.Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleCols+` FROM schedules WHERE public_id = ?`, publicID)
	sc, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule by public id: %w", err)
	}
	return sc, nil
}

func (s *ScheduleStore) ListByAccount(accountID int64) ([]model.Schedule, error) {
	rows, err := s.db.Query(
		`SELECT `+scheduleCols+` FROM schedules WHERE account_id = ? ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

// ListEnabled returns every enabled schedule across all accounts, the input
// set for one reminder evaluation pass.
func (s *ScheduleStore) ListEnabled() ([]model.Schedule, error) {
	rows, err := s.db.Query(`SELECT ` + scheduleCols + ` FROM schedules WHERE enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("list enabled schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func collectSchedules(rows *sql.Rows) ([]model.Schedule, error) {
	var schedules []model.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sc)
	}
	return schedules, rows.Err()
}

// Disable flips the enabled flag off. Schedules are never physically
// deleted; this is the only removal path the resident flow has.
func (s *ScheduleStore) Disable(publicID string, accountID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE schedules SET enabled = 0 WHERE public_id = ? AND account_id = ?`,
		publicID, accountID,
	)
	if err != nil {
		return false, fmt.Errorf("disable schedule: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// SetLastReminderDate persists the dedup marker. Writing the same date
// twice is a harmless no-op.
func (s *ScheduleStore) SetLastReminderDate(id int64, date time.Time) error {
	_, err := s.db.Exec(
		`UPDATE schedules SET last_reminder_date = ? WHERE id = ?`,
		date.Format(reminderDateLayout), id,
	)
	if err != nil {
		return fmt.Errorf("set last reminder date: %w", err)
	}
	return nil
}
