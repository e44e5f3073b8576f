package matching

import (
	"context"
	"time"

	"masterok/internal/models"
)

// Strategy names.
const (
	StrategySchedule = "schedule"
	StrategyRating   = "rating"
)

// Request describes the job to match a master for.
type Request struct {
	Specialization string
	City           string
	Date           time.Time
	Clock          string // optional "HH:MM"; empty checks the date only
}

// Result is a selected master. A nil *Result means no candidate matched,
// which is a normal outcome the caller branches on, not an error.
type Result struct {
	MasterID int64   `json:"master_id"`
	Score    float64 `json:"score"`
}

// Matcher selects the best master for a request.
type Matcher interface {
	Match(ctx context.Context, req Request) (*Result, error)
	Strategy() string
}

// Directory lists masters eligible for matching.
type Directory interface {
	ListActiveMasters(ctx context.Context, city string) ([]models.Master, error)
}

// RatingMatcher is the intake-time strategy: highest-rated active master in
// the city with a matching tag whose terminal is on, schedule and workload
// ignored.
type RatingMatcher struct {
	directory Directory
}

// NewRatingMatcher creates the rating-only strategy.
func NewRatingMatcher(directory Directory) *RatingMatcher {
	return &RatingMatcher{directory: directory}
}

func (m *RatingMatcher) Strategy() string { return StrategyRating }

// Match picks the highest-rated eligible master; ties go to the lowest ID.
func (m *RatingMatcher) Match(ctx context.Context, req Request) (*Result, error) {
	masters, err := m.directory.ListActiveMasters(ctx, req.City)
	if err != nil {
		return nil, err
	}

	var best *models.Master
	for i := range masters {
		c := &masters[i]
		if !c.TerminalActive || !c.HasSpecialization(req.Specialization) {
			continue
		}
		if best == nil || c.Rating > best.Rating {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	return &Result{MasterID: best.ID, Score: best.Rating}, nil
}
