// Package store contains the job model and the registry contracts for statusboard.
package store

import (
	"crypto/subtle"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the mutable progress record of a job.
// It is written by the execution engine and read by everyone else.
type Status struct {
	Message         string     `json:"message"`
	Completed       bool       `json:"completed"`
	Error           bool       `json:"error"`
	PercentComplete float64    `json:"percent_complete"`
	Exception       string     `json:"exception,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`

	// Deploy progress, reported by the provisioned instance.
	GraphBuilt       bool `json:"graph_built"`
	BundleDownloaded bool `json:"bundle_downloaded"`
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s.Completed || s.Error
}

// Job is a tracked unit of asynchronous work.
// Identity fields are immutable; the status is guarded by mu.
type Job struct {
	ID        string
	OwnerID   string
	Type      JobType
	Name      string
	CreatedAt time.Time

	// token is only set for kinds that accept external reports.
	token string

	mu     sync.RWMutex
	status Status

	// delivered is set once a purging read has handed out the final status.
	delivered atomic.Bool
}

// JobSnapshot is a point-in-time, read-only view of a Job.
// It is what every read path hands out.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	OwnerID   string    `json:"owner_id"`
	Type      JobType   `json:"type"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
}

// Status returns a copy of the current status.
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Terminal reports whether the job has completed or errored.
func (j *Job) Terminal() bool {
	return j.Status().Terminal()
}

// Snapshot captures identity and status in one consistent read.
func (j *Job) Snapshot() JobSnapshot {
	return JobSnapshot{
		ID:        j.ID,
		OwnerID:   j.OwnerID,
		Type:      j.Type,
		Name:      j.Name,
		CreatedAt: j.CreatedAt,
		Status:    j.Status(),
	}
}

// Update applies fn to the status under the job's write lock.
// Completed and Error latch: once set, fn cannot clear them.
func (j *Job) Update(fn func(*Status)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	completed, failed := j.status.Completed, j.status.Error
	fn(&j.status)
	if completed {
		j.status.Completed = true
	}
	if failed {
		j.status.Error = true
	}
}

// Token returns the capability token, empty for kinds without one.
func (j *Job) Token() string {
	return j.token
}

// ValidToken reports whether token matches the job's capability token.
// A job without a token never validates.
func (j *Job) ValidToken(token string) bool {
	if j.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(j.token)) == 1
}

// ClaimFinalDelivery marks the job's final status as delivered.
// Only the first caller gets true; purging reads use it so a terminal
// job reaches exactly one of them.
func (j *Job) ClaimFinalDelivery() bool {
	return j.delivered.CompareAndSwap(false, true)
}
