package matching

import (
	"context"
	"time"

	"masterok/internal/models"
)

// RatingWeight converts a 0-5 rating into score points.
const RatingWeight = 10.0

// Availability answers per-master schedule queries.
type Availability interface {
	IsAvailable(ctx context.Context, masterID int64, date time.Time, clock string) (bool, error)
	Workload(ctx context.Context, masterID int64, date time.Time) (int, error)
}

// SchedulePolicy is the canonical matching strategy: filter by exact
// specialization tag, city and schedule availability, then rank by rating
// against current workload.
type SchedulePolicy struct {
	directory Directory
	avail     Availability
}

// NewSchedulePolicy creates the schedule-aware strategy.
func NewSchedulePolicy(directory Directory, avail Availability) *SchedulePolicy {
	return &SchedulePolicy{directory: directory, avail: avail}
}

func (p *SchedulePolicy) Strategy() string { return StrategySchedule }

// Score ranks a candidate; higher is better.
func Score(rating float64, workload int) float64 {
	return rating*RatingWeight - float64(workload)
}

// Candidates returns the active masters in the city carrying the
// specialization tag who are free on the requested date (and time, when
// given), ordered by ascending ID.
func (p *SchedulePolicy) Candidates(ctx context.Context, req Request) ([]models.Master, error) {
	masters, err := p.directory.ListActiveMasters(ctx, req.City)
	if err != nil {
		return nil, err
	}

	var candidates []models.Master
	for i := range masters {
		c := &masters[i]
		if !c.HasSpecialization(req.Specialization) {
			continue
		}
		free, err := p.avail.IsAvailable(ctx, c.ID, req.Date, req.Clock)
		if err != nil {
			return nil, err
		}
		if free {
			candidates = append(candidates, *c)
		}
	}
	return candidates, nil
}

// SelectBest returns the candidate with the maximum score for the date.
// Ties are broken by ascending master ID; empty input yields nil.
func (p *SchedulePolicy) SelectBest(ctx context.Context, candidates []models.Master, date time.Time) (*Result, error) {
	var best *Result
	var bestID int64

	for i := range candidates {
		c := &candidates[i]
		workload, err := p.avail.Workload(ctx, c.ID, date)
		if err != nil {
			return nil, err
		}

		score := Score(c.Rating, workload)
		if best == nil || score > best.Score || (score == best.Score && c.ID < bestID) {
			best = &Result{MasterID: c.ID, Score: score}
			bestID = c.ID
		}
	}
	return best, nil
}

// Match runs the full pipeline: candidates, then best selection.
func (p *SchedulePolicy) Match(ctx context.Context, req Request) (*Result, error) {
	candidates, err := p.Candidates(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.SelectBest(ctx, candidates, req.Date)
}
