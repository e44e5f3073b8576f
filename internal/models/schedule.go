package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKeyFormat is the layout for schedule record keys.
const DateKeyFormat = "2006-01-02"

// ClockFormat is the layout for wall-clock times inside a day.
const ClockFormat = "15:04"

// DateKey returns the record key for a calendar date, ignoring the time component.
func DateKey(t time.Time) string {
	return t.Format(DateKeyFormat)
}

// TimeSlot is a working-hours window within a day. Both bounds are inclusive.
type TimeSlot struct {
	Start string `json:"start"` // "09:00"
	End   string `json:"end"`   // "18:00"
}

// Validate checks the HH:MM format and ordering of the slot bounds.
func (s TimeSlot) Validate() error {
	start, err := ClockMinutes(s.Start)
	if err != nil {
		return fmt.Errorf("invalid start time %q: %w", s.Start, err)
	}
	end, err := ClockMinutes(s.End)
	if err != nil {
		return fmt.Errorf("invalid end time %q: %w", s.End, err)
	}
	if start > end {
		return fmt.Errorf("start %s after end %s", s.Start, s.End)
	}
	return nil
}

// Contains reports whether a wall-clock time falls inside the slot,
// boundaries included. Malformed input is treated as outside.
func (s TimeSlot) Contains(clock string) bool {
	t, err := ClockMinutes(clock)
	if err != nil {
		return false
	}
	start, err := ClockMinutes(s.Start)
	if err != nil {
		return false
	}
	end, err := ClockMinutes(s.End)
	if err != nil {
		return false
	}
	return start <= t && t <= end
}

// ClockMinutes parses "HH:MM" into minutes since midnight.
func ClockMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("out of range: %q", clock)
	}
	return hour*60 + minute, nil
}

// DaySchedule is one master's availability for a single calendar date.
// TimeSlot is nil whenever Available is false.
type DaySchedule struct {
	Date       string    `json:"date"` // YYYY-MM-DD
	Available  bool      `json:"available"`
	TimeSlot   *TimeSlot `json:"time_slot,omitempty"`
	BookedJobs []int64   `json:"booked_jobs"`
}

// AvailableAt reports whether the day is open at the given wall-clock time.
func (d DaySchedule) AvailableAt(clock string) bool {
	if !d.Available || d.TimeSlot == nil {
		return false
	}
	return d.TimeSlot.Contains(clock)
}

// ScheduleRecord maps date keys to day schedules. A master owns exactly one
// record; it is loaded and rewritten as a whole on every mutation.
type ScheduleRecord map[string]DaySchedule

// Day returns the entry for a calendar date.
func (r ScheduleRecord) Day(date time.Time) (DaySchedule, bool) {
	d, ok := r[DateKey(date)]
	return d, ok
}

// Workload returns the number of jobs booked on a date, 0 when the date has
// no entry.
func (r ScheduleRecord) Workload(date time.Time) int {
	d, ok := r.Day(date)
	if !ok {
		return 0
	}
	return len(d.BookedJobs)
}
