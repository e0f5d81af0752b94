// Package status is the job status board: owner and admin reads with
// purge-on-read, and the token-gated report path for external workers.
package status

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"statusboard/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Board reads, purges and updates jobs held in a registry.
type Board struct {
	registry store.JobRegistry
	logger   *slog.Logger

	purged  metric.Int64Counter
	reports metric.Int64Counter
}

// NewBoard creates a board over registry.
func NewBoard(registry store.JobRegistry, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter("statusboard/status")
	purged, err := meter.Int64Counter("statusboard.jobs.purged",
		metric.WithDescription("Terminal jobs removed after their final status was delivered"))
	if err != nil {
		logger.Warn("failed to register purge counter", "error", err)
	}
	reports, err := meter.Int64Counter("statusboard.reports",
		metric.WithDescription("External status reports by outcome"))
	if err != nil {
		logger.Warn("failed to register report counter", "error", err)
	}

	return &Board{
		registry: registry,
		logger:   logger,
		purged:   purged,
		reports:  reports,
	}
}

// Register adds a freshly submitted job under its owner.
func (b *Board) Register(job *store.Job) {
	b.registry.Add(job.OwnerID, job)
	b.logger.Info("job registered", "job_id", job.ID, "owner_id", job.OwnerID, "type", job.Type)
}

// FindJob looks up one of the owner's jobs.
// With purgeIfTerminal set, a terminal job is removed from the owner's set
// and returned to this caller only; later lookups report ErrNotFound.
func (b *Board) FindJob(ownerID, jobID string, purgeIfTerminal bool) (*store.Job, store.JobSnapshot, error) {
	set, ok := b.registry.Get(ownerID)
	if !ok {
		return nil, store.JobSnapshot{}, ErrNotFound
	}
	job, ok := set.Get(jobID)
	if !ok {
		return nil, store.JobSnapshot{}, ErrNotFound
	}

	snap := job.Snapshot()
	if purgeIfTerminal && snap.Status.Terminal() {
		set.Remove(jobID)
		// a purge may have swapped the owner's set since we loaded it
		if current, ok := b.registry.Get(ownerID); ok && current != set {
			current.Remove(jobID)
		}
		if !job.ClaimFinalDelivery() {
			// a concurrent purging read already delivered it
			return nil, store.JobSnapshot{}, ErrNotFound
		}
		b.countPurged(1)
	}
	return job, snap, nil
}

// GetJob is the owner-facing single job read.
func (b *Board) GetJob(ownerID, jobID string, purgeIfTerminal bool) (store.JobSnapshot, error) {
	_, snap, err := b.FindJob(ownerID, jobID, purgeIfTerminal)
	return snap, err
}

// ListJobs returns a snapshot of every job the owner has.
//
// With purgeCompleted set, the owner's registry entry is swapped for a set
// holding only the jobs that were still active, while the returned slice
// still carries the terminal ones. Each terminal job is therefore delivered
// to exactly one purging read and then disappears.
func (b *Board) ListJobs(ownerID string, purgeCompleted bool) []store.JobSnapshot {
	set, ok := b.registry.Get(ownerID)
	if !ok {
		return []store.JobSnapshot{}
	}
	if !purgeCompleted {
		return sorted(snapshots(set.Jobs()))
	}

	out := make([]store.JobSnapshot, 0, set.Len())
	final := make(map[string]struct{})
	claimed := 0
	for _, job := range set.Jobs() {
		snap := job.Snapshot()
		if snap.Status.Terminal() {
			final[job.ID] = struct{}{}
			if !job.ClaimFinalDelivery() {
				continue
			}
			claimed++
		}
		out = append(out, snap)
	}

	if len(final) > 0 {
		b.registry.Retain(ownerID, func(j *store.Job) bool {
			_, done := final[j.ID]
			return !done
		})
		b.countPurged(claimed)
		b.logger.Debug("purged terminal jobs", "owner_id", ownerID, "count", len(final))
	}
	return sorted(out)
}

// ListAllJobs flattens every owner's jobs. It performs no purge and no
// privilege check; use ListAllJobsAs from request paths.
func (b *Board) ListAllJobs() []store.JobSnapshot {
	var out []store.JobSnapshot
	b.registry.Range(func(_ string, set store.JobSet) bool {
		out = append(out, snapshots(set.Jobs())...)
		return true
	})
	if out == nil {
		out = []store.JobSnapshot{}
	}
	return sorted(out)
}

// ListAllJobsAs is the admin entry point for the all-jobs view.
// Non-admin users get ErrUnauthorized. With types given the view is
// filtered as FilterByType does.
func (b *Board) ListAllJobsAs(ctx context.Context, user *store.User, types ...store.JobType) ([]store.JobSnapshot, error) {
	if !user.CanAdministerApplication() {
		b.logger.WarnContext(ctx, "non-admin requested all jobs", "user_id", userID(user))
		return nil, ErrUnauthorized
	}
	if len(types) > 0 {
		return b.FilterByType(types...), nil
	}
	return b.ListAllJobs(), nil
}

// FilterByType returns the jobs in the all-jobs view whose type is listed.
func (b *Board) FilterByType(types ...store.JobType) []store.JobSnapshot {
	out := []store.JobSnapshot{}
	for _, snap := range b.ListAllJobs() {
		if slices.Contains(types, snap.Type) {
			out = append(out, snap)
		}
	}
	return out
}

// ActiveCount returns the number of jobs currently registered.
func (b *Board) ActiveCount() int64 {
	var n int64
	b.registry.Range(func(_ string, set store.JobSet) bool {
		n += int64(set.Len())
		return true
	})
	return n
}

func (b *Board) countPurged(n int) {
	if b.purged != nil {
		b.purged.Add(context.Background(), int64(n))
	}
}

func snapshots(jobs []*store.Job) []store.JobSnapshot {
	out := make([]store.JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	return out
}

// sorted orders by creation time, then id, so polling output is stable.
func sorted(snaps []store.JobSnapshot) []store.JobSnapshot {
	slices.SortFunc(snaps, func(a, b store.JobSnapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return snaps
}

func userID(u *store.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
