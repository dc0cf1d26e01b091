package scheduler

import (
	"context"
	"time"

	obscontext "github.com/smallbiznis/brewlink/internal/observability/context"
	obslogger "github.com/smallbiznis/brewlink/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/brewlink/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	runOutcomeOK      = "ok"
	runOutcomeSkipped = "skipped"
	runOutcomeFailed  = "failed"
)

// jobRun tracks one execution of a job for its start/finish log lines.
type jobRun struct {
	job          string
	runID        string
	startedAt    time.Time
	scheduledFor time.Time
	devicesReset int64
	skipped      bool
	errorCount   int
}

type jobRunKey struct{}

func (r *jobRun) IncError() {
	if r == nil {
		return
	}
	r.errorCount++
}

func (r *jobRun) outcome() string {
	switch {
	case r.errorCount > 0:
		return runOutcomeFailed
	case r.skipped:
		return runOutcomeSkipped
	default:
		return runOutcomeOK
	}
}

// ensureJobRun returns the run already on ctx, or starts one. owner is true
// for the caller that started it and must log its finish.
func (s *Scheduler) ensureJobRun(ctx context.Context, job string) (context.Context, *jobRun, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing, ok := ctx.Value(jobRunKey{}).(*jobRun); ok && existing != nil {
		return ctx, existing, false
	}
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithComponent(ctx, "scheduler")
	ctx = obscontext.WithRequestID(ctx, run.runID)
	return ctx, run, true
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobStart(ctx context.Context, run *jobRun) {
	s.logger(ctx).Info("scheduler.job.start",
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
	)
}

func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun) {
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
		zap.String("outcome", run.outcome()),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int64("devices_reset", run.devicesReset),
	}
	if !run.scheduledFor.IsZero() {
		fields = append(fields, zap.String("scheduled_for", run.scheduledFor.Format(time.DateOnly)))
	}
	if run.errorCount > 0 {
		s.logger(ctx).Warn("scheduler.job.finish", fields...)
		return
	}
	s.logger(ctx).Info("scheduler.job.finish", fields...)
}

func (s *Scheduler) logSchedulerError(ctx context.Context, run *jobRun, msg string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	run.IncError()
	base := []zap.Field{
		zap.String("job", run.job),
		zap.String("error_type", obsmetrics.ClassifySchedulerErrorType(err)),
		zap.Bool("retryable", obsmetrics.IsSchedulerErrorRetryable(err)),
		zap.Error(err),
	}
	s.logger(ctx).Error(msg, append(base, fields...)...)
}
