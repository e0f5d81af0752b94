package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"statusboard/internal/controller/middleware"
	"statusboard/internal/engine"
	"statusboard/internal/logger"
	"statusboard/internal/store"
	"statusboard/pkg/api"
)

// SubmitJob handles POST {prefix}secure/jobs.
// The job is owned by the caller and handed to the engine. Reportable
// kinds return their capability token once, here.
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	jobType, err := store.ParseJobType(req.Type)
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if jobType == store.JobTypeCommand && len(req.Command) == 0 {
		h.httpError(w, "Command is required for command jobs", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		kind, _ := store.Kind(jobType)
		name = kind.Description
	}

	job, err := store.NewJob(user.ID, jobType, name)
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.Submit(engine.Task{Job: job, Command: req.Command}); err != nil {
		logger.FromContext(ctx, h.logger).Warn("job submission refused", "type", jobType, "error", err)
		code := http.StatusServiceUnavailable
		if errors.Is(err, engine.ErrNoRunner) {
			code = http.StatusBadRequest
		}
		h.httpError(w, "Failed to schedule job", code)
		return
	}
	h.board.Register(job)

	h.respondJson(w, http.StatusAccepted, api.SubmitJobResponse{
		JobID: job.ID,
		Token: job.Token(),
	})
}
