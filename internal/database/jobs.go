package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"masterok/internal/models"
)

// CreateJob inserts a new pending job and returns its ID.
func (db *DB) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	status := j.Status
	if status == "" {
		status = models.JobStatusPending
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO jobs (client_name, client_phone, category, problem_description,
		                  address, city, scheduled_date, scheduled_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ClientName, j.ClientPhone, j.Category, j.Description,
		j.Address, j.City, j.ScheduledDate, j.ScheduledTime, status)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return res.LastInsertId()
}

// GetJob returns a job by ID.
func (db *DB) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, client_name, client_phone, category, problem_description,
		       address, city, scheduled_date, scheduled_time, status, master_id, created_at
		FROM jobs WHERE id = ?`, id)

	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	return j, err
}

// AssignJob records the master assignment on a job.
func (db *DB) AssignJob(ctx context.Context, jobID, masterID int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE jobs SET master_id = ?, status = ? WHERE id = ?",
		masterID, models.JobStatusAssigned, jobID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Status   string
	MasterID int64
	From     time.Time
	To       time.Time
	Limit    int
}

// ListJobs returns jobs matching the filter, newest first.
func (db *DB) ListJobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	query := `
		SELECT id, client_name, client_phone, category, problem_description,
		       address, city, scheduled_date, scheduled_time, status, master_id, created_at
		FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.MasterID > 0 {
		query += " AND master_id = ?"
		args = append(args, filter.MasterID)
	}
	if !filter.From.IsZero() {
		query += " AND scheduled_date >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND scheduled_date <= ?"
		args = append(args, filter.To)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	var scheduledTime sql.NullString
	var masterID sql.NullInt64

	err := row.Scan(&j.ID, &j.ClientName, &j.ClientPhone, &j.Category, &j.Description,
		&j.Address, &j.City, &j.ScheduledDate, &scheduledTime, &j.Status, &masterID, &j.CreatedAt)
	if err != nil {
		return nil, err
	}

	if scheduledTime.Valid {
		j.ScheduledTime = scheduledTime.String
	}
	if masterID.Valid {
		j.MasterID = masterID.Int64
	}
	return &j, nil
}
