package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"masterok/internal/models"
)

// CreateMaster inserts a new master and returns its ID.
func (db *DB) CreateMaster(ctx context.Context, m *models.Master) (int64, error) {
	specs, err := json.Marshal(m.Specializations)
	if err != nil {
		return 0, fmt.Errorf("marshal specializations: %w", err)
	}

	rating := m.Rating
	if rating == 0 {
		rating = models.DefaultRating
	}
	channel := m.PreferredChannel
	if channel == "" {
		channel = "telegram"
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO masters (full_name, phone, specializations, city, preferred_channel, rating, is_active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		m.FullName, m.Phone, string(specs), m.City, channel, rating)
	if err != nil {
		return 0, fmt.Errorf("insert master: %w", err)
	}
	return res.LastInsertId()
}

// GetMaster returns a master by ID.
func (db *DB) GetMaster(ctx context.Context, id int64) (*models.Master, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, full_name, phone, specializations, city, preferred_channel,
		       rating, is_active, terminal_active, last_schedule_confirmation, created_at
		FROM masters WHERE id = ?`, id)

	m, err := scanMaster(row)
	if err == sql.ErrNoRows {
		return nil, ErrMasterNotFound
	}
	return m, err
}

// ListActiveMasters returns active masters in a city. Specialization
// filtering is done by the caller against the parsed tag list.
func (db *DB) ListActiveMasters(ctx context.Context, city string) ([]models.Master, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, full_name, phone, specializations, city, preferred_channel,
		       rating, is_active, terminal_active, last_schedule_confirmation, created_at
		FROM masters
		WHERE is_active = 1 AND city = ?
		ORDER BY id`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var masters []models.Master
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, err
		}
		masters = append(masters, *m)
	}
	return masters, rows.Err()
}

// SetTerminalActive toggles a master's terminal (on-shift) flag.
func (db *DB) SetTerminalActive(ctx context.Context, id int64, active bool) error {
	res, err := db.ExecContext(ctx,
		"UPDATE masters SET terminal_active = ? WHERE id = ?", active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMasterNotFound
	}
	return nil
}

// ConfirmSchedule stamps the master's schedule-confirmation time.
func (db *DB) ConfirmSchedule(ctx context.Context, id int64, at time.Time) error {
	res, err := db.ExecContext(ctx,
		"UPDATE masters SET last_schedule_confirmation = ? WHERE id = ?", at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMasterNotFound
	}
	return nil
}

// LastConfirmation returns the master's last schedule confirmation, nil when
// the master has never confirmed.
func (db *DB) LastConfirmation(ctx context.Context, id int64) (*time.Time, error) {
	var last sql.NullTime
	err := db.QueryRowContext(ctx,
		"SELECT last_schedule_confirmation FROM masters WHERE id = ?", id).Scan(&last)
	if err == sql.ErrNoRows {
		return nil, ErrMasterNotFound
	}
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaster(row rowScanner) (*models.Master, error) {
	var m models.Master
	var specs string
	var channel sql.NullString
	var last sql.NullTime

	err := row.Scan(&m.ID, &m.FullName, &m.Phone, &specs, &m.City, &channel,
		&m.Rating, &m.IsActive, &m.TerminalActive, &last, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if channel.Valid {
		m.PreferredChannel = channel.String
	}
	if last.Valid {
		t := last.Time
		m.LastConfirmation = &t
	}
	if specs != "" {
		if err := json.Unmarshal([]byte(specs), &m.Specializations); err != nil {
			return nil, fmt.Errorf("unmarshal specializations for master %d: %w", m.ID, err)
		}
	}
	return &m, nil
}
