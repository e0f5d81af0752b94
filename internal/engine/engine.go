// Package engine runs submitted jobs in-process with bounded concurrency,
// writing progress into each job's status as work proceeds.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"statusboard/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrStopped   = errors.New("engine is not accepting jobs")
	ErrQueueFull = errors.New("engine queue is full")
	ErrNoRunner  = errors.New("no runner for job type")
)

// Task is one unit of work handed to the engine.
type Task struct {
	Job *store.Job
	// Command is the argv for command jobs; other kinds ignore it.
	Command []string
}

// Runner executes one kind of job. It reports progress through
// task.Job.Update and returns a non-nil error when the job failed.
type Runner interface {
	Run(ctx context.Context, task Task) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, task Task) error

func (f RunnerFunc) Run(ctx context.Context, task Task) error { return f(ctx, task) }

// Config holds configuration for the engine.
type Config struct {
	Concurrency int
	QueueSize   int           // Pending tasks accepted before Submit fails (default: 64)
	JobTimeout  time.Duration // Upper bound on any single job (default: 1h)
}

// Engine pulls tasks off its queue and runs them on at most
// Concurrency goroutines.
type Engine struct {
	config  Config
	runners map[store.JobType]Runner
	logger  *slog.Logger

	mu      sync.RWMutex
	stopped bool
	queue   chan Task
	done    chan struct{}

	finished metric.Int64Counter
}

// New creates an engine. Runners are keyed by the job type they serve.
func New(config Config, runners map[store.JobType]Runner, logger *slog.Logger) *Engine {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	finished, err := otel.Meter("statusboard/engine").Int64Counter("statusboard.engine.jobs",
		metric.WithDescription("Jobs finished by the engine, by type and outcome"))
	if err != nil {
		logger.Warn("failed to register engine counter", "error", err)
	}

	return &Engine{
		config:   config,
		runners:  runners,
		logger:   logger,
		queue:    make(chan Task, config.QueueSize),
		done:     make(chan struct{}),
		finished: finished,
	}
}

// Submit queues task for execution. It never blocks.
func (e *Engine) Submit(task Task) error {
	if task.Job == nil {
		return fmt.Errorf("submit: nil job")
	}
	if _, ok := e.runners[task.Job.Type]; !ok {
		return fmt.Errorf("%w: %s", ErrNoRunner, task.Job.Type)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return ErrStopped
	}
	select {
	case e.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Accepting reports whether Submit can still queue work.
func (e *Engine) Accepting() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.stopped
}

// Run dispatches queued tasks until ctx is cancelled. Running jobs see the
// cancellation and finish as errored; tasks still queued are marked errored
// without starting.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "concurrency", e.config.Concurrency)

	sem := make(chan struct{}, e.config.Concurrency)
	var wg sync.WaitGroup

	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping, waiting for running jobs")
			e.stop()
			wg.Wait()
			return ctx.Err()

		case task := <-e.queue:
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				abandon(task)
				continue
			}

			wg.Add(1)
			go func(task Task) {
				defer wg.Done()
				defer func() { <-sem }()
				e.process(ctx, task)
			}(task)
		}
	}
}

// Done returns a channel that is closed when the engine has fully stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	for {
		select {
		case task := <-e.queue:
			abandon(task)
		default:
			return
		}
	}
}

func abandon(task Task) {
	task.Job.Update(func(s *store.Status) {
		s.Error = true
		s.Message = "Job was not started before shutdown"
	})
}

func (e *Engine) process(ctx context.Context, task Task) {
	job := task.Job
	logger := e.logger.With("job_id", job.ID, "type", job.Type, "owner_id", job.OwnerID)

	spanCtx, span := otel.Tracer("statusboard-engine").Start(ctx, "run_job",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.type", string(job.Type)),
			attribute.String("job.name", job.Name),
			attribute.String("owner.id", job.OwnerID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	execCtx, cancel := context.WithTimeout(spanCtx, e.config.JobTimeout)
	defer cancel()

	started := time.Now().UTC()
	job.Update(func(s *store.Status) {
		s.StartedAt = &started
		s.Message = "Job started"
	})
	logger.Info("job started")

	err := e.runners[job.Type].Run(execCtx, task)

	finished := time.Now().UTC()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		job.Update(func(s *store.Status) {
			s.FinishedAt = &finished
			s.Error = true
			s.Exception = err.Error()
			if !errors.Is(err, errReported) {
				s.Message = "Job failed"
			}
		})
		logger.Warn("job failed", "error", err, "duration", finished.Sub(started))
		e.count(job.Type, "error")
		return
	}

	job.Update(func(s *store.Status) {
		s.FinishedAt = &finished
		s.Completed = true
		s.PercentComplete = 100
		s.Message = "Job complete!"
	})
	logger.Info("job completed", "duration", finished.Sub(started))
	e.count(job.Type, "completed")
}

func (e *Engine) count(t store.JobType, outcome string) {
	if e.finished == nil {
		return
	}
	e.finished.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", string(t)),
		attribute.String("outcome", outcome),
	))
}
