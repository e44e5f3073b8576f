package models

import (
	"strings"
	"time"
)

// DefaultRating is assigned to masters without an accumulated rating.
const DefaultRating = 5.0

// Master represents a field technician offering services in a city.
type Master struct {
	ID               int64      `json:"id"`
	FullName         string     `json:"full_name"`
	Phone            string     `json:"phone"`
	Specializations  []string   `json:"specializations"`
	City             string     `json:"city"`
	PreferredChannel string     `json:"preferred_channel"`
	Rating           float64    `json:"rating"`
	IsActive         bool       `json:"is_active"`
	TerminalActive   bool       `json:"terminal_active"`
	LastConfirmation *time.Time `json:"last_schedule_confirmation,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// HasSpecialization reports whether the master carries the exact category tag.
func (m *Master) HasSpecialization(tag string) bool {
	for _, s := range m.Specializations {
		if strings.EqualFold(s, tag) {
			return true
		}
	}
	return false
}
