package booking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterok/internal/events"
	"masterok/internal/matching"
	"masterok/internal/models"
	"masterok/internal/schedule"
)

type memStore struct {
	records map[int64]models.ScheduleRecord
}

func (s *memStore) LoadSchedule(_ context.Context, masterID int64) (models.ScheduleRecord, error) {
	record, ok := s.records[masterID]
	if !ok {
		return models.ScheduleRecord{}, nil
	}
	return record, nil
}

func (s *memStore) SaveSchedule(_ context.Context, masterID int64, record models.ScheduleRecord) error {
	s.records[masterID] = record
	return nil
}

type memJobs struct {
	assigned map[int64]int64 // jobID -> masterID
}

func (j *memJobs) AssignJob(_ context.Context, jobID, masterID int64) error {
	j.assigned[jobID] = masterID
	return nil
}

type fixedMatcher struct {
	result *Result
}

// Result aliased so the fixture reads naturally.
type Result = matching.Result

func (m *fixedMatcher) Match(_ context.Context, _ matching.Request) (*Result, error) {
	return m.result, nil
}

func (m *fixedMatcher) Strategy() string { return matching.StrategySchedule }

func newFixture(matcher matching.Matcher) (*Coordinator, *memStore, *memJobs, *events.Bus) {
	store := &memStore{records: make(map[int64]models.ScheduleRecord)}
	jobs := &memJobs{assigned: make(map[int64]int64)}
	bus := events.NewBus()
	logger := zerolog.New(io.Discard)
	c := NewCoordinator(store, schedule.NewLocks(), jobs, matcher, bus, &logger)
	return c, store, jobs, bus
}

func TestBook(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	key := models.DateKey(date)

	t.Run("appends job to booked list", func(t *testing.T) {
		c, store, _, _ := newFixture(&fixedMatcher{})
		store.records[1] = models.ScheduleRecord{
			key: {Date: key, Available: true, BookedJobs: []int64{10}},
		}

		outcome, err := c.Book(ctx, 1, 11, date)
		require.NoError(t, err)
		assert.Equal(t, OutcomeBooked, outcome)

		day, _ := store.records[1].Day(date)
		assert.Equal(t, []int64{10, 11}, day.BookedJobs)
	})

	t.Run("missing date is a silent skip", func(t *testing.T) {
		c, store, _, _ := newFixture(&fixedMatcher{})
		store.records[1] = models.ScheduleRecord{}

		outcome, err := c.Book(ctx, 1, 11, date)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkippedNoEntry, outcome)
		assert.Empty(t, store.records[1], "nothing fabricated for the missing date")
	})

	t.Run("books even on unavailable day", func(t *testing.T) {
		// Booking trusts the caller's match decision; only a missing
		// entry stops it.
		c, store, _, _ := newFixture(&fixedMatcher{})
		store.records[1] = models.ScheduleRecord{
			key: {Date: key, Available: false, BookedJobs: []int64{}},
		}

		outcome, err := c.Book(ctx, 1, 11, date)
		require.NoError(t, err)
		assert.Equal(t, OutcomeBooked, outcome)
	})

	t.Run("no duplicate check", func(t *testing.T) {
		c, store, _, _ := newFixture(&fixedMatcher{})
		store.records[1] = models.ScheduleRecord{
			key: {Date: key, Available: true, BookedJobs: []int64{}},
		}

		for i := 0; i < 2; i++ {
			_, err := c.Book(ctx, 1, 11, date)
			require.NoError(t, err)
		}
		day, _ := store.records[1].Day(date)
		assert.Equal(t, []int64{11, 11}, day.BookedJobs)
	})
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	key := models.DateKey(date)
	job := &models.Job{ID: 7, Category: "plumbing", City: "Omsk", ScheduledDate: date}

	t.Run("match books and publishes assignment", func(t *testing.T) {
		c, store, jobs, bus := newFixture(&fixedMatcher{result: &Result{MasterID: 3, Score: 50}})
		store.records[3] = models.ScheduleRecord{
			key: {Date: key, Available: true, BookedJobs: []int64{}},
		}

		var published []events.Event
		bus.Subscribe(events.TypeJobAssigned, func(e events.Event) error {
			published = append(published, e)
			return nil
		})

		result, err := c.Assign(ctx, job)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Pending)
		assert.Equal(t, int64(3), result.MasterID)
		assert.Equal(t, OutcomeBooked, result.Outcome)

		assert.Equal(t, int64(3), jobs.assigned[7])
		day, _ := store.records[3].Day(date)
		assert.Equal(t, []int64{7}, day.BookedJobs)

		require.Len(t, published, 1)
		assert.Equal(t, int64(7), published[0].JobID)
		assert.Equal(t, int64(3), published[0].MasterID)
	})

	t.Run("no match leaves job pending", func(t *testing.T) {
		c, _, jobs, bus := newFixture(&fixedMatcher{result: nil})

		var pending []events.Event
		bus.Subscribe(events.TypeJobPending, func(e events.Event) error {
			pending = append(pending, e)
			return nil
		})

		result, err := c.Assign(ctx, job)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.Pending)
		assert.Empty(t, jobs.assigned)
		require.Len(t, pending, 1)
		assert.Equal(t, int64(7), pending[0].JobID)
	})

	t.Run("assignment survives schedule skip", func(t *testing.T) {
		// Master matched but the scheduled date has no entry: the job is
		// assigned, the day's booked list is not touched.
		c, store, jobs, _ := newFixture(&fixedMatcher{result: &Result{MasterID: 3, Score: 50}})
		store.records[3] = models.ScheduleRecord{}

		result, err := c.Assign(ctx, job)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, OutcomeSkippedNoEntry, result.Outcome)
		assert.Equal(t, int64(3), jobs.assigned[7])
	})
}
