package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"masterok/internal/events"
	"masterok/internal/matching"
	"masterok/internal/metrics"
	"masterok/internal/models"
	"masterok/internal/schedule"
)

// Outcome of a booking attempt.
type Outcome string

const (
	// OutcomeBooked means the job was appended to the day's booked list.
	OutcomeBooked Outcome = "booked"
	// OutcomeSkippedNoEntry means the date had no schedule entry; nothing is
	// fabricated and the booking is dropped.
	OutcomeSkippedNoEntry Outcome = "skipped_no_entry"
)

// JobStore persists the job-side half of an assignment.
type JobStore interface {
	AssignJob(ctx context.Context, jobID, masterID int64) error
}

// Coordinator commits job assignments into master schedules.
type Coordinator struct {
	store   schedule.Store
	locks   *schedule.Locks
	jobs    JobStore
	matcher matching.Matcher
	bus     *events.Bus
	logger  *zerolog.Logger
}

// NewCoordinator creates a coordinator. The locks registry must be the same
// one the availability engine uses, so writers of one master's record are
// serialized with each other.
func NewCoordinator(store schedule.Store, locks *schedule.Locks, jobs JobStore, matcher matching.Matcher, bus *events.Bus, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		locks:   locks,
		jobs:    jobs,
		matcher: matcher,
		bus:     bus,
		logger:  logger,
	}
}

// Book appends the job to the master's booked list for the date. A date
// without a schedule entry is left untouched: a human never marked it
// available, so no entry is created. No duplicate check, no capacity cap.
func (c *Coordinator) Book(ctx context.Context, masterID, jobID int64, date time.Time) (Outcome, error) {
	mu := c.locks.Get(masterID)
	mu.Lock()
	defer mu.Unlock()

	record, err := c.store.LoadSchedule(ctx, masterID)
	if err != nil {
		return "", fmt.Errorf("load schedule: %w", err)
	}

	key := models.DateKey(date)
	day, ok := record[key]
	if !ok {
		metrics.IncBookingSkipped()
		c.logger.Warn().
			Int64("master_id", masterID).
			Int64("job_id", jobID).
			Str("date", key).
			Msg("booking skipped: no schedule entry for date")
		return OutcomeSkippedNoEntry, nil
	}

	day.BookedJobs = append(day.BookedJobs, jobID)
	record[key] = day

	if err := c.store.SaveSchedule(ctx, masterID, record); err != nil {
		return "", fmt.Errorf("save schedule: %w", err)
	}

	metrics.IncBookingCommitted()
	c.logger.Info().
		Int64("master_id", masterID).
		Int64("job_id", jobID).
		Str("date", key).
		Int("workload", len(day.BookedJobs)).
		Msg("job booked")
	return OutcomeBooked, nil
}

// AssignResult is the outcome of the intake assignment flow.
type AssignResult struct {
	MasterID int64
	Pending  bool
	Outcome  Outcome
}

// Assign runs the intake flow for a job: match a master, persist the
// assignment, book the day, and publish the corresponding event. No matching
// master is a normal outcome; the job stays pending for manual dispatch.
func (c *Coordinator) Assign(ctx context.Context, job *models.Job) (*AssignResult, error) {
	req := matching.Request{
		Specialization: job.Category,
		City:           job.City,
		Date:           job.ScheduledDate,
		Clock:          job.ScheduledTime,
	}

	result, err := c.matcher.Match(ctx, req)
	if err != nil {
		metrics.IncMatchRequest(c.matcher.Strategy(), "error")
		return nil, fmt.Errorf("match job %d: %w", job.ID, err)
	}

	if result == nil {
		metrics.IncMatchRequest(c.matcher.Strategy(), "pending")
		c.bus.Publish(events.Event{
			Type:     events.TypeJobPending,
			JobID:    job.ID,
			City:     job.City,
			Category: job.Category,
		})
		c.logger.Info().Int64("job_id", job.ID).Msg("no master matched, job pending")
		return &AssignResult{Pending: true}, nil
	}

	if err := c.jobs.AssignJob(ctx, job.ID, result.MasterID); err != nil {
		return nil, fmt.Errorf("assign job %d: %w", job.ID, err)
	}

	outcome, err := c.Book(ctx, result.MasterID, job.ID, job.ScheduledDate)
	if err != nil {
		return nil, err
	}

	metrics.IncMatchRequest(c.matcher.Strategy(), "assigned")
	c.bus.Publish(events.Event{
		Type:     events.TypeJobAssigned,
		JobID:    job.ID,
		MasterID: result.MasterID,
		City:     job.City,
		Category: job.Category,
	})
	c.logger.Info().
		Int64("job_id", job.ID).
		Int64("master_id", result.MasterID).
		Float64("score", result.Score).
		Str("outcome", string(outcome)).
		Msg("job assigned")
	return &AssignResult{MasterID: result.MasterID, Outcome: outcome}, nil
}
