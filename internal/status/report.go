package status

import (
	"context"
	"fmt"

	"statusboard/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Param is one query parameter of a report, kept in request order.
type Param struct {
	Name  string
	Value string
}

// ReportRequest is an unauthenticated progress report for one job.
// OwnerID and Token come from the caller, not from a session.
type ReportRequest struct {
	JobID   string
	OwnerID string
	Token   string
	Params  []Param
}

// Report applies the first recognised update in req.Params to the job.
//
// The job is looked up with purge enabled, so a terminal job is removed by
// this call and never updated. The boolean result is false when no
// recognised update name was present; that is not an error.
func (b *Board) Report(ctx context.Context, req ReportRequest) (bool, error) {
	applied, err := b.report(req)
	b.countReport(ctx, applied, err)
	if err != nil {
		b.logger.WarnContext(ctx, "job status report rejected",
			"job_id", req.JobID, "owner_id", req.OwnerID, "error", err)
		return false, err
	}
	return applied, nil
}

func (b *Board) report(req ReportRequest) (bool, error) {
	if req.OwnerID == "" {
		return false, ErrMissingOwner
	}

	job, snap, err := b.FindJob(req.OwnerID, req.JobID, true)
	if err != nil {
		return false, fmt.Errorf("job %s for owner %s: %w", req.JobID, req.OwnerID, err)
	}

	kind, ok := store.Kind(job.Type)
	if !ok || !kind.Reportable() {
		return false, fmt.Errorf("job type %s: %w", job.Type, ErrUnsupported)
	}
	if !job.ValidToken(req.Token) {
		return false, ErrUnauthorized
	}
	if snap.Status.Terminal() {
		return false, nil
	}

	for _, p := range req.Params {
		update, ok := kind.Reports[p.Name]
		if !ok {
			continue
		}
		success := p.Value == "true"
		job.Update(func(s *store.Status) { update(s, success) })
		b.logger.Info("job status reported", "job_id", job.ID, "update", p.Name, "success", success)
		return true, nil
	}
	return false, nil
}

func (b *Board) countReport(ctx context.Context, applied bool, err error) {
	if b.reports == nil {
		return
	}
	outcome := "ignored"
	switch {
	case err != nil:
		outcome = "rejected"
	case applied:
		outcome = "applied"
	}
	b.reports.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
