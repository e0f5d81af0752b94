package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"statusboard/internal/controller/middleware"
	"statusboard/internal/status"
	"statusboard/internal/store"
	"statusboard/pkg/api"
)

// GetUserJobs handles GET {prefix}secure/status/jobs.
// Terminal jobs are returned one last time and then purged.
func (h *Handlers) GetUserJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.respondJson(w, http.StatusOK, toJobResponses(h.board.ListJobs(user.ID, true)))
}

// GetAllJobs handles GET {prefix}secure/status/jobs/all.
// Admin only. Repeated or comma separated ?type= values filter the view.
func (h *Handlers) GetAllJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var types []store.JobType
	for _, v := range r.URL.Query()["type"] {
		for _, name := range strings.Split(v, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			t, err := store.ParseJobType(name)
			if err != nil {
				h.httpError(w, err.Error(), http.StatusBadRequest)
				return
			}
			types = append(types, t)
		}
	}

	jobs, err := h.board.ListAllJobsAs(ctx, user, types...)
	if err != nil {
		h.httpError(w, "User is not authorized to perform administrative action", statusCodeFor(err))
		return
	}
	h.respondJson(w, http.StatusOK, toJobResponses(jobs))
}

// GetJob handles GET {prefix}secure/status/jobs/{jobId}.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	snap, err := h.board.GetJob(user.ID, r.PathValue("jobId"), true)
	if err != nil {
		code := statusCodeFor(err)
		message := "Job not found"
		if code != http.StatusNotFound {
			message = "Failed to read job"
		}
		h.httpError(w, message, code)
		return
	}
	h.respondJson(w, http.StatusOK, toJobResponse(snap))
}

// ReportJobStatus handles POST {prefix}public/status/jobs/{jobId}.
// It is called by provisioned workers, which authenticate with the job's
// capability token instead of an API key. The body is a JSON boolean:
// true when an update was applied.
func (h *Handlers) ReportJobStatus(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params, err := orderedParams(r.URL.RawQuery)
	if err != nil {
		h.httpError(w, "Malformed query string", http.StatusBadRequest)
		return
	}

	applied, err := h.board.Report(r.Context(), status.ReportRequest{
		JobID:   r.PathValue("jobId"),
		OwnerID: query.Get(api.ParamUser),
		Token:   query.Get(api.ParamToken),
		Params:  params,
	})
	switch {
	case err == nil:
		h.respondJson(w, http.StatusOK, applied)
	case errors.Is(err, status.ErrUnauthorized):
		h.httpError(w, "Invalid job token", http.StatusUnauthorized)
	case errors.Is(err, status.ErrMissingOwner):
		h.httpError(w, "Missing required user parameter", http.StatusBadRequest)
	case errors.Is(err, status.ErrNotFound):
		h.httpError(w, "Job not found", http.StatusBadRequest)
	case errors.Is(err, status.ErrUnsupported):
		h.httpError(w, "Job type does not accept status reports", http.StatusBadRequest)
	default:
		h.httpError(w, "Failed to update job status", http.StatusInternalServerError)
	}
}

// orderedParams decodes a raw query string keeping parameter order, which
// url.Values does not preserve. The first recognised update wins.
func orderedParams(raw string) ([]status.Param, error) {
	var params []status.Param
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		if name == api.ParamUser || name == api.ParamToken {
			continue
		}
		params = append(params, status.Param{Name: name, Value: value})
	}
	return params, nil
}
