// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// SubmitJobRequest is the request body for submitting a new job.
type SubmitJobRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
	// Command is required for command jobs and ignored otherwise.
	Command []string `json:"command,omitempty"`
}

// SubmitJobResponse is the response body after submitting a job.
// Token is only present for job types that accept external reports.
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
	Token string `json:"token,omitempty"`
}

// JobStatus is the progress record of a job.
type JobStatus struct {
	Message          string     `json:"message"`
	Completed        bool       `json:"completed"`
	Error            bool       `json:"error"`
	PercentComplete  float64    `json:"percent_complete"`
	Exception        string     `json:"exception,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	GraphBuilt       bool       `json:"graph_built"`
	BundleDownloaded bool       `json:"bundle_downloaded"`
}

// JobResponse is a job as returned by the status endpoints.
type JobResponse struct {
	ID        string    `json:"job_id"`
	OwnerID   string    `json:"owner_id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Status    JobStatus `json:"status"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Report parameter names accepted on the public status route.
const (
	ParamUser  = "user"
	ParamToken = "token"
)
