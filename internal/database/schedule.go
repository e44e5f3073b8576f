package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"masterok/internal/models"
)

// LoadSchedule reads a master's whole schedule record. A master without a
// stored record gets an empty one.
func (db *DB) LoadSchedule(ctx context.Context, masterID int64) (models.ScheduleRecord, error) {
	var raw sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT schedule_json FROM masters WHERE id = ?", masterID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrMasterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule for master %d: %w", masterID, err)
	}

	record := make(models.ScheduleRecord)
	if !raw.Valid || raw.String == "" {
		return record, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &record); err != nil {
		return nil, fmt.Errorf("unmarshal schedule for master %d: %w", masterID, err)
	}
	return record, nil
}

// SaveSchedule overwrites a master's whole schedule record. There is no
// partial merge: callers load, mutate a copy, and save the full record back.
func (db *DB) SaveSchedule(ctx context.Context, masterID int64, record models.ScheduleRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal schedule for master %d: %w", masterID, err)
	}

	res, err := db.ExecContext(ctx,
		"UPDATE masters SET schedule_json = ? WHERE id = ?", string(raw), masterID)
	if err != nil {
		return fmt.Errorf("save schedule for master %d: %w", masterID, err)
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
