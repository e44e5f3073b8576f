package models

import "time"

// Job statuses.
const (
	JobStatusPending   = "pending"
	JobStatusAssigned  = "assigned"
	JobStatusCompleted = "completed"
	JobStatusCancelled = "cancelled"
)

// Job is a client repair request. MasterID is 0 until a master is assigned.
type Job struct {
	ID            int64     `json:"id"`
	ClientName    string    `json:"client_name"`
	ClientPhone   string    `json:"client_phone"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	ScheduledDate time.Time `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time,omitempty"` // "HH:MM", optional
	Status        string    `json:"status"`
	MasterID      int64     `json:"master_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
