package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"wisentia/internal/domain"
	"wisentia/internal/domain/jsoncfg"
	"wisentia/internal/infra/metrics"
	"wisentia/internal/middleware"
)

type enqueueRequest struct {
	ContentType string `json:"contentType"`
	domain.GenerationParams
}

type jobView struct {
	JobID       int64           `json:"jobId"`
	ContentType string          `json:"contentType"`
	Status      string          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	ApprovedAt  *time.Time      `json:"approvedAt,omitempty"`
	ApprovedBy  *string         `json:"approvedBy,omitempty"`
}

func viewOf(job *domain.GenerationJob) jobView {
	return jobView{
		JobID:       job.ID,
		ContentType: string(job.ContentType),
		Status:      string(job.Status),
		Payload:     job.Payload,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		ApprovedAt:  job.ApprovedAt,
		ApprovedBy:  job.ApprovedBy,
	}
}

// EnqueueJob records a generation request and returns immediately; the
// worker pool picks it up from the queue.
func (a *App) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	contentType := domain.ContentType(strings.ToLower(strings.TrimSpace(req.ContentType)))
	switch contentType {
	case domain.ContentTypeQuiz:
		if strings.TrimSpace(req.Transcript) == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "quiz jobs require a transcript")
			return
		}
	case domain.ContentTypeQuest:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "contentType must be quiz or quest")
		return
	}
	req.GenerationParams.Normalize(middleware.LocaleFromContext(r.Context()))

	jobID, err := a.Jobs.Create(r.Context(), contentType, req.GenerationParams)
	if err != nil {
		a.Logger.Error().Err(err).Msg("enqueue generation job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to enqueue job")
		return
	}
	metrics.JobsEnqueued.WithLabelValues(string(contentType)).Inc()
	a.json(w, http.StatusAccepted, map[string]any{
		"jobId":  jobID,
		"status": string(domain.JobStatusQueued),
	})
}

// JobStatus returns the current state of a job with its status-shaped
// payload, suitable for admin panel polling.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid job id")
		return
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Int64("job_id", jobID).Msg("load job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, viewOf(job))
}

// ListJobs returns the queue filtered by contentType and status query
// params, oldest first.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	contentType := domain.ContentType(strings.ToLower(r.URL.Query().Get("contentType")))
	if contentType != "" && contentType != domain.ContentTypeQuiz && contentType != domain.ContentTypeQuest {
		a.error(w, http.StatusBadRequest, "bad_request", "contentType must be quiz or quest")
		return
	}
	var statuses []domain.JobStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			statuses = append(statuses, domain.JobStatus(s))
		}
	}
	jobs, err := a.Jobs.ListByStatus(r.Context(), contentType, statuses)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list jobs")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	counts, err := a.Jobs.CountByStatus(r.Context(), contentType)
	if err != nil {
		a.Logger.Error().Err(err).Msg("count jobs")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	items := make([]jobView, 0, len(jobs))
	for i := range jobs {
		items = append(items, viewOf(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "counts": counts})
}

// ApproveJob materializes a completed job's generated content. Repeating
// the call on an approved job returns the prior result.
func (a *App) ApproveJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid job id")
		return
	}
	adminID := middleware.AdminIDFromContext(r.Context())
	if adminID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing admin context")
		return
	}
	if a.Approver == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "no approver configured")
		return
	}
	outcome, err := a.Approver.Approve(r.Context(), jobID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "job not found")
		case errors.Is(err, domain.ErrAlreadyApproved):
			// Lost a race with a concurrent approve; report its recorded
			// result, matching the idempotent repeat-approve response.
			a.approvedElsewhere(w, r, jobID)
		case errors.Is(err, domain.ErrInvalidStatus):
			a.error(w, http.StatusConflict, "invalid_status", "job is not approvable in its current state")
		default:
			a.Logger.Error().Err(err).Int64("job_id", jobID).Msg("approve job")
			a.error(w, http.StatusInternalServerError, "internal", "failed to approve job")
		}
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"jobId":           jobID,
		"status":          string(outcome.Status),
		"alreadyApproved": outcome.AlreadyApproved,
		"result":          outcome.Payload,
	})
}

// approvedElsewhere answers an approve call that lost the conditional-update
// race with the winner's stored result.
func (a *App) approvedElsewhere(w http.ResponseWriter, r *http.Request, jobID int64) {
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		a.Logger.Error().Err(err).Int64("job_id", jobID).Msg("load approved job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	payload, err := jsoncfg.Decode(job.Status, job.Payload)
	if err != nil {
		payload = nil
	}
	a.json(w, http.StatusOK, map[string]any{
		"jobId":           jobID,
		"status":          string(job.Status),
		"alreadyApproved": true,
		"result":          payload,
	})
}

// ProcessNext runs one queued job inline. It exists for environments
// without a standing worker and for smoke-testing the pipeline.
func (a *App) ProcessNext(w http.ResponseWriter, r *http.Request) {
	if a.Runner == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "no job runner configured")
		return
	}
	jobID, status, err := a.Runner.ProcessNext(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoJobAvailable) {
			a.json(w, http.StatusOK, map[string]any{"processed": false})
			return
		}
		a.Logger.Error().Err(err).Msg("process next job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to process job")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"processed": true,
		"jobId":     jobID,
		"status":    string(status),
	})
}
