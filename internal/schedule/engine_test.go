package schedule

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterok/internal/models"
)

// memStore keeps schedule records and confirmation stamps in memory.
type memStore struct {
	records       map[int64]models.ScheduleRecord
	confirmations map[int64]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		records:       make(map[int64]models.ScheduleRecord),
		confirmations: make(map[int64]time.Time),
	}
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

func (s *memStore) LastConfirmation(_ context.Context, masterID int64) (*time.Time, error) {
	at, ok := s.confirmations[masterID]
	if !ok {
		return nil, nil
	}
	return &at, nil
}

func (s *memStore) ConfirmSchedule(_ context.Context, masterID int64, at time.Time) error {
	s.confirmations[masterID] = at
	return nil
}

func newTestEngine(store *memStore, now time.Time) *Engine {
	logger := zerolog.New(io.Discard)
	e := NewEngine(store, store, NewLocks(), &logger)
	e.now = func() time.Time { return now }
	return e
}

func TestSetDay(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("available day requires slot", func(t *testing.T) {
		e := newTestEngine(newMemStore(), date)
		err := e.SetDay(ctx, 1, date, true, nil)
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})

	t.Run("rejects inverted slot", func(t *testing.T) {
		e := newTestEngine(newMemStore(), date)
		err := e.SetDay(ctx, 1, date, true, &models.TimeSlot{Start: "18:00", End: "09:00"})
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})

	t.Run("unavailable day clears slot", func(t *testing.T) {
		store := newMemStore()
		e := newTestEngine(store, date)

		require.NoError(t, e.SetDay(ctx, 1, date, true, &models.TimeSlot{Start: "09:00", End: "18:00"}))
		require.NoError(t, e.SetDay(ctx, 1, date, false, &models.TimeSlot{Start: "09:00", End: "18:00"}))

		day, ok := store.records[1].Day(date)
		require.True(t, ok)
		assert.False(t, day.Available)
		assert.Nil(t, day.TimeSlot)
	})

	t.Run("preserves booked jobs on overwrite", func(t *testing.T) {
		store := newMemStore()
		key := models.DateKey(date)
		store.records[1] = models.ScheduleRecord{
			key: {Date: key, Available: true, TimeSlot: &models.TimeSlot{Start: "09:00", End: "18:00"}, BookedJobs: []int64{41, 42}},
		}
		e := newTestEngine(store, date)

		require.NoError(t, e.SetDay(ctx, 1, date, true, &models.TimeSlot{Start: "10:00", End: "16:00"}))

		day, _ := store.records[1].Day(date)
		assert.Equal(t, []int64{41, 42}, day.BookedJobs)
		assert.Equal(t, "10:00", day.TimeSlot.Start)
	})

	t.Run("new day gets empty booked list", func(t *testing.T) {
		store := newMemStore()
		e := newTestEngine(store, date)

		require.NoError(t, e.SetDay(ctx, 1, date, true, &models.TimeSlot{Start: "09:00", End: "18:00"}))

		day, _ := store.records[1].Day(date)
		assert.NotNil(t, day.BookedJobs)
		assert.Empty(t, day.BookedJobs)
	})
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	key := models.DateKey(date)
	store.records[1] = models.ScheduleRecord{
		key: {Date: key, Available: true, TimeSlot: &models.TimeSlot{Start: "09:00", End: "18:00"}},
	}
	e := newTestEngine(store, date)

	tests := []struct {
		name  string
		date  time.Time
		clock string
		want  bool
	}{
		{name: "date only", date: date, clock: "", want: true},
		{name: "inside slot", date: date, clock: "12:00", want: true},
		{name: "slot start", date: date, clock: "09:00", want: true},
		{name: "slot end", date: date, clock: "18:00", want: true},
		{name: "before slot", date: date, clock: "08:59", want: false},
		{name: "no entry for date", date: date.AddDate(0, 0, 1), clock: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.IsAvailable(ctx, 1, tt.date, tt.clock)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateWeeklySchedule(t *testing.T) {
	ctx := context.Background()
	// 2026-03-02 is a Monday.
	monday := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	store := newMemStore()
	e := newTestEngine(store, monday)

	require.NoError(t, e.CreateWeeklySchedule(ctx, 1, "08:00", "20:00", nil))

	record := store.records[1]
	require.Len(t, record, 7)

	// Mon-Fri open, Sat-Sun closed.
	for i := 0; i < 7; i++ {
		day, ok := record.Day(monday.AddDate(0, 0, i))
		require.True(t, ok, "day %d missing", i)
		if i < 5 {
			assert.True(t, day.Available, "day %d", i)
			require.NotNil(t, day.TimeSlot)
			assert.Equal(t, "08:00", day.TimeSlot.Start)
			assert.Equal(t, "20:00", day.TimeSlot.End)
		} else {
			assert.False(t, day.Available, "day %d", i)
			assert.Nil(t, day.TimeSlot)
		}
	}
}

func TestCreateWeeklyScheduleReplacesRecord(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store := newMemStore()

	farFuture := monday.AddDate(0, 1, 0)
	store.records[1] = models.ScheduleRecord{
		models.DateKey(farFuture): {Date: models.DateKey(farFuture), Available: true, BookedJobs: []int64{99}},
	}

	e := newTestEngine(store, monday)
	require.NoError(t, e.CreateWeeklySchedule(ctx, 1, "09:00", "18:00", nil))

	_, ok := store.records[1].Day(farFuture)
	assert.False(t, ok, "entries outside the 7-day window are discarded")
	assert.Len(t, store.records[1], 7)
}

func TestCreateWeeklyScheduleCustomDays(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store := newMemStore()
	e := newTestEngine(store, monday)

	require.NoError(t, e.CreateWeeklySchedule(ctx, 1, "09:00", "15:00",
		[]time.Weekday{time.Saturday, time.Sunday}))

	sat, _ := store.records[1].Day(monday.AddDate(0, 0, 5))
	sun, _ := store.records[1].Day(monday.AddDate(0, 0, 6))
	mon, _ := store.records[1].Day(monday)

	assert.True(t, sat.Available)
	assert.True(t, sun.Available)
	assert.False(t, mon.Available)
}

func TestCreateWeeklyScheduleInvalidHours(t *testing.T) {
	e := newTestEngine(newMemStore(), time.Now())
	err := e.CreateWeeklySchedule(context.Background(), 1, "20:00", "08:00", nil)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestConfirmationDue(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{name: "never confirmed", last: nil, want: true},
		{name: "just confirmed", last: ptr(now), want: false},
		{name: "exactly at window", last: ptr(now.Add(-ConfirmationWindow)), want: false},
		{name: "past window", last: ptr(now.Add(-ConfirmationWindow - time.Minute)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfirmationDue(tt.last, now))
		})
	}
}

func TestNeedsConfirmationFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	e := newTestEngine(store, now)

	due, err := e.NeedsConfirmation(ctx, 1)
	require.NoError(t, err)
	assert.True(t, due, "fresh master must confirm")

	require.NoError(t, e.ConfirmSchedule(ctx, 1))

	due, err = e.NeedsConfirmation(ctx, 1)
	require.NoError(t, err)
	assert.False(t, due)
}

func ptr(t time.Time) *time.Time { return &t }
