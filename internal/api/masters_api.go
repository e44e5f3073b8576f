package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"masterok/internal/database"
	"masterok/internal/metrics"
	"masterok/internal/models"
	"masterok/internal/schedule"
)

// RegisterMasterRequest is the body for POST /api/v1/masters.
type RegisterMasterRequest struct {
	FullName         string   `json:"full_name"`
	Phone            string   `json:"phone"`
	Specializations  []string `json:"specializations"`
	City             string   `json:"city"`
	PreferredChannel string   `json:"preferred_channel,omitempty"`
}

// SetDayRequest is the body for POST /api/v1/masters/{id}/schedule/day.
type SetDayRequest struct {
	Date      string           `json:"date"` // YYYY-MM-DD
	Available bool             `json:"available"`
	TimeSlot  *models.TimeSlot `json:"time_slot,omitempty"`
}

// WeeklyScheduleRequest is the body for POST /api/v1/masters/{id}/schedule/week.
// Empty fields fall back to the configured defaults.
type WeeklyScheduleRequest struct {
	StartTime   string `json:"start_time,omitempty"` // "HH:MM"
	EndTime     string `json:"end_time,omitempty"`   // "HH:MM"
	WorkingDays []int  `json:"working_days,omitempty"` // ISO weekdays, Monday=1
}

func (s *HTTPServer) masterID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// handleRegisterMaster creates a master profile.
func (s *HTTPServer) handleRegisterMaster(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("register_master")

	var req RegisterMasterRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.FullName == "" || req.Phone == "" || req.City == "" || len(req.Specializations) == 0 {
		writeError(w, http.StatusBadRequest, "full_name, phone, city and specializations are required")
		return
	}

	id, err := s.db.CreateMaster(r.Context(), &models.Master{
		FullName:         req.FullName,
		Phone:            req.Phone,
		Specializations:  req.Specializations,
		City:             req.City,
		PreferredChannel: req.PreferredChannel,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			writeError(w, http.StatusConflict, "phone already registered")
			return
		}
		s.log.Error().Err(err).Msg("failed to register master")
		writeError(w, http.StatusInternalServerError, "failed to register master")
		return
	}

	s.log.Info().Int64("master_id", id).Str("city", req.City).Msg("master registered")
	writeJSON(w, http.StatusCreated, map[string]any{"master_id": id})
}

// handleGetMaster returns a master profile.
func (s *HTTPServer) handleGetMaster(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_master")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	master, err := s.db.GetMaster(r.Context(), id)
	if errors.Is(err, database.ErrMasterNotFound) {
		writeError(w, http.StatusNotFound, "master not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int64("master_id", id).Msg("failed to load master")
		writeError(w, http.StatusInternalServerError, "failed to load master")
		return
	}
	writeJSON(w, http.StatusOK, master)
}

// handleTerminal toggles the master's on-shift flag.
// PATCH /api/v1/masters/{id}/terminal
func (s *HTTPServer) handleTerminal(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("terminal")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	var req struct {
		TerminalActive bool `json:"terminal_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.db.SetTerminalActive(r.Context(), id, req.TerminalActive)
	if errors.Is(err, database.ErrMasterNotFound) {
		writeError(w, http.StatusNotFound, "master not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update terminal status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"terminal_active": req.TerminalActive})
}

// handleSetDay updates a single day of the master's schedule.
func (s *HTTPServer) handleSetDay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("set_day")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	var req SetDayRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := time.Parse(models.DateKeyFormat, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	err = s.engine.SetDay(r.Context(), id, date, req.Available, req.TimeSlot)
	switch {
	case errors.Is(err, schedule.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrMasterNotFound):
		writeError(w, http.StatusNotFound, "master not found")
	case err != nil:
		s.log.Error().Err(err).Int64("master_id", id).Msg("failed to set day schedule")
		writeError(w, http.StatusInternalServerError, "failed to set day schedule")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// handleWeeklySchedule builds a 7-day schedule starting today.
func (s *HTTPServer) handleWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("weekly_schedule")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	var req WeeklyScheduleRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start := req.StartTime
	if start == "" {
		start = s.defaults.Start
	}
	end := req.EndTime
	if end == "" {
		end = s.defaults.End
	}

	days := s.defaults.WorkingDays
	if len(req.WorkingDays) > 0 {
		days = days[:0:0]
		for _, d := range req.WorkingDays {
			if d < 1 || d > 7 {
				writeError(w, http.StatusBadRequest, "working_days must be ISO weekdays 1-7")
				return
			}
			days = append(days, time.Weekday(d%7))
		}
	}

	err := s.engine.CreateWeeklySchedule(r.Context(), id, start, end, days)
	switch {
	case errors.Is(err, schedule.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrMasterNotFound):
		writeError(w, http.StatusNotFound, "master not found")
	case err != nil:
		s.log.Error().Err(err).Int64("master_id", id).Msg("failed to create weekly schedule")
		writeError(w, http.StatusInternalServerError, "failed to create weekly schedule")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// handleAvailability answers "is master M free at date/time".
// GET /api/v1/masters/{id}/availability?date=YYYY-MM-DD&time=HH:MM
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	date, err := time.Parse(models.DateKeyFormat, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	clock := r.URL.Query().Get("time")
	if clock != "" {
		if _, err := models.ClockMinutes(clock); err != nil {
			writeError(w, http.StatusBadRequest, "invalid time format; expected HH:MM")
			return
		}
	}

	available, err := s.engine.IsAvailable(r.Context(), id, date, clock)
	if errors.Is(err, database.ErrMasterNotFound) {
		writeError(w, http.StatusNotFound, "master not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"master_id": id,
		"date":      models.DateKey(date),
		"available": available,
	})
}

// handleWorkload returns the booked-job count for a date.
// GET /api/v1/masters/{id}/workload?date=YYYY-MM-DD
func (s *HTTPServer) handleWorkload(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("workload")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	date, err := time.Parse(models.DateKeyFormat, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	workload, err := s.engine.Workload(r.Context(), id, date)
	if errors.Is(err, database.ErrMasterNotFound) {
		writeError(w, http.StatusNotFound, "master not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count workload")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"master_id": id,
		"date":      models.DateKey(date),
		"workload":  workload,
	})
}

// handleConfirmSchedule stamps today's schedule confirmation.
func (s *HTTPServer) handleConfirmSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("confirm_schedule")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	err := s.engine.ConfirmSchedule(r.Context(), id)
	if errors.Is(err, database.ErrMasterNotFound) {
		writeError(w, http.StatusNotFound, "master not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to confirm schedule")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleConfirmationStatus reports whether a reconfirmation is due.
func (s *HTTPServer) handleConfirmationStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("confirmation_status")

	id, ok := s.masterID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid master id")
		return
	}

	due, err := s.engine.NeedsConfirmation(r.Context(), id)
	if errors.Is(err, database.ErrMasterNotFound) {
		writeError(w, http.StatusNotFound, "master not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check confirmation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"needs_confirmation": due})
}
