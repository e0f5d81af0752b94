package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"statusboard/internal/store"
)

// errReported marks failures whose message is already in the job status.
var errReported = errors.New("failure reported by the job")

// DeployRunner waits for the provisioned instance to report both the bundle
// download and the graph build through the public report route.
type DeployRunner struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func (d DeployRunner) Run(ctx context.Context, task Task) error {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	interval := d.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	job := task.Job
	job.Update(func(s *store.Status) {
		s.Message = "Waiting for deploy instance to download bundle"
		s.PercentComplete = 10
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s := job.Status()
		switch {
		case s.Error:
			return fmt.Errorf("deploy instance: %w", errReported)
		case s.BundleDownloaded && s.GraphBuilt:
			return nil
		case s.BundleDownloaded && s.PercentComplete < 50:
			job.Update(func(s *store.Status) { s.PercentComplete = 50 })
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("deploy instance did not report within %v", timeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// StepRunner walks a fixed list of steps, reporting each one as the status
// message. It stands in for kinds whose real work lives in other services.
type StepRunner struct {
	Steps []string
	Delay time.Duration
}

func (r StepRunner) Run(ctx context.Context, task Task) error {
	for i, step := range r.Steps {
		task.Job.Update(func(s *store.Status) {
			s.Message = step
			s.PercentComplete = float64(i) * 100 / float64(len(r.Steps))
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delay):
		}
	}
	return nil
}

// DefaultRunners returns a runner for every known job type.
func DefaultRunners(deployTimeout time.Duration) map[store.JobType]Runner {
	step := 2 * time.Second
	return map[store.JobType]Runner{
		store.JobTypeDeploy:  DeployRunner{Timeout: deployTimeout},
		store.JobTypeCommand: CommandRunner{},
		store.JobTypeValidateFeed: StepRunner{Delay: step, Steps: []string{
			"Loading feed", "Validating stops", "Validating trips", "Writing validation result",
		}},
		store.JobTypeProcessSnapshot: StepRunner{Delay: step, Steps: []string{
			"Copying feed tables", "Building editor snapshot",
		}},
		store.JobTypeMergeFeedVersions: StepRunner{Delay: step, Steps: []string{
			"Reading feed versions", "Merging calendars", "Merging trips", "Writing merged feed",
		}},
		store.JobTypeExportGIS: StepRunner{Delay: step, Steps: []string{
			"Collecting features", "Writing shapefile",
		}},
	}
}
