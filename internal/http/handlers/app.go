// Package handlers implements the admin HTTP surface for the generation
// pipeline.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"wisentia/internal/approval"
	"wisentia/internal/domain"
	"wisentia/internal/infra"
)

// JobRunner processes one queued job synchronously. Backed by the executor
// in both binaries.
type JobRunner interface {
	ProcessNext(ctx context.Context) (int64, domain.JobStatus, error)
}

// JobApprover materializes a completed job's generated content. Backed by
// the approval service.
type JobApprover interface {
	Approve(ctx context.Context, jobID int64, adminID string) (*approval.Outcome, error)
}

type App struct {
	Jobs     domain.JobRepository
	Approver JobApprover
	Runner   JobRunner
	Logger   infra.Logger
}

func NewApp(jobs domain.JobRepository, approver JobApprover, runner JobRunner, logger infra.Logger) *App {
	return &App{Jobs: jobs, Approver: approver, Runner: runner, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{"error": kind, "message": message})
}
