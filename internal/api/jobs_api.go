package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"masterok/internal/database"
	"masterok/internal/metrics"
	"masterok/internal/models"
)

// CreateJobRequest is the body for POST /api/v1/jobs.
type CreateJobRequest struct {
	ClientName    string `json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	Category      string `json:"category"`
	Description   string `json:"description,omitempty"`
	Address       string `json:"address"`
	City          string `json:"city"`
	ScheduledDate string `json:"scheduled_date"`           // YYYY-MM-DD
	ScheduledTime string `json:"scheduled_time,omitempty"` // "HH:MM"
}

// handleCreateJob takes a client request, stores it, and runs the matching
// flow. A job with no matching master comes back as pending, not an error.
func (s *HTTPServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_job")

	var req CreateJobRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.ClientName == "" || req.ClientPhone == "" || req.Category == "" || req.City == "" {
		writeError(w, http.StatusBadRequest, "client_name, client_phone, category and city are required")
		return
	}
	date, err := time.Parse(models.DateKeyFormat, req.ScheduledDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scheduled_date; expected YYYY-MM-DD")
		return
	}
	if req.ScheduledTime != "" {
		if _, err := models.ClockMinutes(req.ScheduledTime); err != nil {
			writeError(w, http.StatusBadRequest, "invalid scheduled_time; expected HH:MM")
			return
		}
	}

	job := &models.Job{
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		Category:      req.Category,
		Description:   req.Description,
		Address:       req.Address,
		City:          req.City,
		ScheduledDate: date,
		ScheduledTime: req.ScheduledTime,
	}

	id, err := s.db.CreateJob(r.Context(), job)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create job")
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	job.ID = id

	result, err := s.coordinator.Assign(r.Context(), job)
	if err != nil {
		s.log.Error().Err(err).Int64("job_id", id).Msg("assignment failed")
		// The job is saved; the caller can retry dispatch later.
		writeJSON(w, http.StatusCreated, map[string]any{
			"job_id": id,
			"status": models.JobStatusPending,
		})
		return
	}

	if result.Pending {
		writeJSON(w, http.StatusCreated, map[string]any{
			"job_id": id,
			"status": models.JobStatusPending,
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"job_id":    id,
		"status":    models.JobStatusAssigned,
		"master_id": result.MasterID,
		"booking":   string(result.Outcome),
	})
}

// handleGetJob returns a job by ID.
func (s *HTTPServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_job")

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := s.db.GetJob(r.Context(), id)
	if errors.Is(err, database.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int64("job_id", id).Msg("failed to load job")
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleWorkloadReport streams an XLSX workload report.
// GET /api/v1/reports/workload?from=YYYY-MM-DD&to=YYYY-MM-DD&city=...
func (s *HTTPServer) handleWorkloadReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("workload_report")

	q := r.URL.Query()
	from, err := time.Parse(models.DateKeyFormat, q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse(models.DateKeyFormat, q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not precede from")
		return
	}

	filename := fmt.Sprintf("workload_%s_%s.xlsx", q.Get("from"), q.Get("to"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := s.reports.Workload(r.Context(), w, q.Get("city"), from, to); err != nil {
		s.log.Error().Err(err).Msg("failed to generate workload report")
		return
	}
}
