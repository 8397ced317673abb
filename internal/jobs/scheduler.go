// Package jobs runs the periodic maintenance work of the worker: repairing
// drifted like counters and flushing buffered view counts.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tastefeed/server/pkg/logging"
	"github.com/tastefeed/server/pkg/telemetry"
)

// Job is one unit of scheduled work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules. A run that is still going when its
// next tick fires is skipped rather than overlapped.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
	runs    *telemetry.Counter
}

// NewScheduler creates a scheduler. timeout bounds each run.
func NewScheduler(timeout time.Duration) *Scheduler {
	logger := logging.WithComponent("jobs")
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		timeout: timeout,
		logger:  logger,
		runs:    telemetry.NewCounter("job_runs_total", "Scheduled job runs by job and outcome"),
	}
}

// Add schedules job on spec, e.g. "@every 1m" or "0 * * * *"
func (s *Scheduler) Add(spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background(), job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s on %q: %w", job.Name(), spec, err)
	}
	s.logger.Info("Job scheduled", zap.String("job", job.Name()), zap.String("spec", spec), zap.Int("entry_id", int(id)))
	return nil
}

// RunOnce runs job immediately with the scheduler's timeout
func (s *Scheduler) RunOnce(ctx context.Context, job Job) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx, span := telemetry.StartSpan(ctx, "jobs."+job.Name())
	defer span.End()

	start := time.Now()
	err := job.Run(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.logger.Error("Job failed", zap.String("job", job.Name()), zap.Duration("duration", time.Since(start)), zap.Error(err))
	} else {
		s.logger.Info("Job finished", zap.String("job", job.Name()), zap.Duration("duration", time.Since(start)))
	}
	s.runs.Add(ctx, 1, attribute.String("job", job.Name()), attribute.String("outcome", outcome))
}

// Start starts the cron scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and returns a context that is done once running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
