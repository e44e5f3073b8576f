package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"masterok/internal/models"
)

// ConfirmationWindow is how long a schedule confirmation stays fresh.
const ConfirmationWindow = 12 * time.Hour

var ErrInvalidSlot = errors.New("invalid time slot")

// Store persists whole schedule records, one per master.
type Store interface {
	LoadSchedule(ctx context.Context, masterID int64) (models.ScheduleRecord, error)
	SaveSchedule(ctx context.Context, masterID int64, record models.ScheduleRecord) error
}

// Confirmations owns the master's schedule-confirmation timestamp.
type Confirmations interface {
	LastConfirmation(ctx context.Context, masterID int64) (*time.Time, error)
	ConfirmSchedule(ctx context.Context, masterID int64, at time.Time) error
}

// Engine answers availability queries and maintains schedule records.
type Engine struct {
	store         Store
	confirmations Confirmations
	locks         *Locks
	logger        *zerolog.Logger
	now           func() time.Time
}

// NewEngine creates an availability engine. The locks registry may be shared
// with other writers of the same records (the booking coordinator).
func NewEngine(store Store, confirmations Confirmations, locks *Locks, logger *zerolog.Logger) *Engine {
	return &Engine{
		store:         store,
		confirmations: confirmations,
		locks:         locks,
		logger:        logger,
		now:           time.Now,
	}
}

// SetDay replaces the schedule entry for one date, preserving any jobs
// already booked on it. An available day requires a valid slot.
func (e *Engine) SetDay(ctx context.Context, masterID int64, date time.Time, available bool, slot *models.TimeSlot) error {
	var daySlot *models.TimeSlot
	if available {
		if slot == nil {
			return fmt.Errorf("%w: available day requires a slot", ErrInvalidSlot)
		}
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSlot, err)
		}
		s := *slot
		daySlot = &s
	}

	mu := e.locks.Get(masterID)
	mu.Lock()
	defer mu.Unlock()

	record, err := e.store.LoadSchedule(ctx, masterID)
	if err != nil {
		return err
	}

	key := models.DateKey(date)
	booked := []int64{}
	if existing, ok := record[key]; ok && existing.BookedJobs != nil {
		booked = existing.BookedJobs
	}

	record[key] = models.DaySchedule{
		Date:       key,
		Available:  available,
		TimeSlot:   daySlot,
		BookedJobs: booked,
	}

	if err := e.store.SaveSchedule(ctx, masterID, record); err != nil {
		return err
	}

	e.logger.Info().
		Int64("master_id", masterID).
		Str("date", key).
		Bool("available", available).
		Msg("day schedule updated")
	return nil
}

// IsAvailable reports whether the master works on a date. With a non-empty
// clock ("HH:MM") the slot bounds are checked too, inclusive on both ends.
// A date without an entry is never available.
func (e *Engine) IsAvailable(ctx context.Context, masterID int64, date time.Time, clock string) (bool, error) {
	record, err := e.store.LoadSchedule(ctx, masterID)
	if err != nil {
		return false, err
	}

	day, ok := record.Day(date)
	if !ok {
		return false, nil
	}
	if clock == "" {
		return day.Available, nil
	}
	return day.AvailableAt(clock), nil
}

// CreateWeeklySchedule writes 7 consecutive day entries starting today,
// marking the given weekdays available with a uniform slot. The master's
// record is replaced wholesale: dates outside the window are discarded.
func (e *Engine) CreateWeeklySchedule(ctx context.Context, masterID int64, start, end string, workingDays []time.Weekday) error {
	slot := models.TimeSlot{Start: start, End: end}
	if err := slot.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}

	if len(workingDays) == 0 {
		workingDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	working := make(map[time.Weekday]bool, len(workingDays))
	for _, d := range workingDays {
		working[d] = true
	}

	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	record := make(models.ScheduleRecord, 7)
	for i := 0; i < 7; i++ {
		date := today.AddDate(0, 0, i)
		key := models.DateKey(date)

		day := models.DaySchedule{
			Date:       key,
			Available:  working[date.Weekday()],
			BookedJobs: []int64{},
		}
		if day.Available {
			s := slot
			day.TimeSlot = &s
		}
		record[key] = day
	}

	mu := e.locks.Get(masterID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.store.SaveSchedule(ctx, masterID, record); err != nil {
		return err
	}

	e.logger.Info().
		Int64("master_id", masterID).
		Str("from", models.DateKey(today)).
		Str("slot", start+"-"+end).
		Msg("weekly schedule created")
	return nil
}

// Workload returns the number of jobs booked for a master on a date.
func (e *Engine) Workload(ctx context.Context, masterID int64, date time.Time) (int, error) {
	record, err := e.store.LoadSchedule(ctx, masterID)
	if err != nil {
		return 0, err
	}
	return record.Workload(date), nil
}

// ConfirmationDue reports whether a schedule confirmation is needed: no prior
// confirmation, or the last one strictly older than the window.
func ConfirmationDue(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) > ConfirmationWindow
}

// NeedsConfirmation reports whether the master must reconfirm today's schedule.
func (e *Engine) NeedsConfirmation(ctx context.Context, masterID int64) (bool, error) {
	last, err := e.confirmations.LastConfirmation(ctx, masterID)
	if err != nil {
		return false, err
	}
	return ConfirmationDue(last, e.now()), nil
}

// ConfirmSchedule stamps the master's confirmation with the current time.
func (e *Engine) ConfirmSchedule(ctx context.Context, masterID int64) error {
	return e.confirmations.ConfirmSchedule(ctx, masterID, e.now())
}
