// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"statusboard/internal/engine"
	"statusboard/internal/status"
	"statusboard/internal/store"
	"statusboard/pkg/api"
)

// StatusBoard is the job status surface the handlers serve.
type StatusBoard interface {
	Register(job *store.Job)
	ListJobs(ownerID string, purgeCompleted bool) []store.JobSnapshot
	ListAllJobsAs(ctx context.Context, user *store.User, types ...store.JobType) ([]store.JobSnapshot, error)
	GetJob(ownerID, jobID string, purgeIfTerminal bool) (store.JobSnapshot, error)
	Report(ctx context.Context, req status.ReportRequest) (bool, error)
}

// Executor runs submitted jobs.
type Executor interface {
	Submit(task engine.Task) error
	Accepting() bool
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	board  StatusBoard
	engine Executor
	logger *slog.Logger
}

// New creates a new Handlers instance.
func New(board StatusBoard, exec Executor, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{board: board, engine: exec, logger: logger}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// statusCodeFor maps board errors on the secure routes.
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, status.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, status.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrMissingOwner), errors.Is(err, status.ErrUnsupported):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func toJobResponse(s store.JobSnapshot) api.JobResponse {
	return api.JobResponse{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Type:      string(s.Type),
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		Status: api.JobStatus{
			Message:          s.Status.Message,
			Completed:        s.Status.Completed,
			Error:            s.Status.Error,
			PercentComplete:  s.Status.PercentComplete,
			Exception:        s.Status.Exception,
			StartedAt:        s.Status.StartedAt,
			FinishedAt:       s.Status.FinishedAt,
			GraphBuilt:       s.Status.GraphBuilt,
			BundleDownloaded: s.Status.BundleDownloaded,
		},
	}
}

func toJobResponses(snaps []store.JobSnapshot) []api.JobResponse {
	out := make([]api.JobResponse, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, toJobResponse(s))
	}
	return out
}
