package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brewlink/internal/clock"
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/smallbiznis/brewlink/internal/lock"
	obsmetrics "github.com/smallbiznis/brewlink/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobResetDailyQuota = "reset_daily_quota"

	keyJobLock = "scheduler:lock:%s:%s"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Repo     domain.Repository
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Settings *config.GatewaySettingsHolder
	Locker   *lock.Locker `optional:"true"`
	Config   Config       `optional:"true"`
}

// Scheduler resets every device quota at local midnight.
type Scheduler struct {
	repo     domain.Repository
	log      *zap.Logger
	cfg      Config
	genID    *snowflake.Node
	clock    clock.Clock
	settings *config.GatewaySettingsHolder
	locker   *lock.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Repo == nil || p.Log == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		repo:     p.Repo,
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:      p.Config.withDefaults(),
		genID:    p.GenID,
		clock:    p.Clock,
		settings: p.Settings,
		locker:   p.Locker,
	}, nil
}

// NextMidnight returns the first midnight in loc strictly after now.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next midnight retries
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce performs the reset scheduled for the day of scheduledFor.
func (s *Scheduler) RunOnce(parent context.Context, scheduledFor time.Time) error {
	settings := s.settings.Get()
	return s.runJob(parent, JobResetDailyQuota, settings.ResetJobTimeout, func(ctx context.Context) error {
		return s.ResetDailyQuotaJob(ctx, scheduledFor, settings.QuotaResetValue)
	})
}

func (s *Scheduler) ResetDailyQuotaJob(ctx context.Context, scheduledFor time.Time, value int) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobResetDailyQuota)
	run.scheduledFor = scheduledFor.In(s.cfg.Location)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	if s.locker.Enabled() {
		key := fmt.Sprintf(keyJobLock, JobResetDailyQuota, scheduledFor.In(s.cfg.Location).Format(time.DateOnly))
		token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.lock.failed", err, zap.String("lock_key", key))
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		if !ok {
			run.skipped = true
			obsmetrics.Scheduler().IncJobSkipped(JobResetDailyQuota, obsmetrics.SchedulerJobSkippedReasonLockHeld)
			s.logger(ctx).Info("scheduler.job.skipped",
				zap.String("job", JobResetDailyQuota),
				zap.String("lock_key", key),
				zap.String("reason", obsmetrics.SchedulerJobSkippedReasonLockHeld),
			)
			return nil
		}
		// The lock is kept until its TTL on success so late replicas skip
		// the same day. A failed run frees it for another replica.
		defer func() {
			if run.errorCount == 0 {
				return
			}
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				s.logger(ctx).Warn("scheduler.lock.release_failed", zap.String("lock_key", key), zap.Error(err))
			}
		}()
	}

	rows, err := s.repo.ResetAllQuotas(ctx, value)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.reset.failed", err, zap.Int("value", value))
		return err
	}
	run.devicesReset = rows
	obsmetrics.Scheduler().AddBatchProcessed(JobResetDailyQuota, "devices", rows)
	s.logger(ctx).Info("quota.reset",
		zap.Int64("devices", rows),
		zap.Int("value", value),
		zap.Time("scheduled_for", scheduledFor),
	)
	return nil
}

// RunForever waits for each local midnight and runs the reset. The wait is
// recomputed from the wall clock every iteration.
func (s *Scheduler) RunForever(ctx context.Context) {
	schedMetrics := obsmetrics.Scheduler()
	var last time.Time

	for {
		now := s.clock.Now()
		from := now
		if from.Before(last) {
			from = last
		}
		next := NextMidnight(from, s.cfg.Location)
		delay := next.Sub(now)
		schedMetrics.SetNextRunDelay(delay)
		s.log.Info("scheduler.next_run",
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(delay):
		}

		if lag := s.clock.Now().Sub(next); lag > 0 {
			schedMetrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx, next); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		last = next
	}
}
