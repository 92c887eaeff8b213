package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Dosada05/tournament-engine/services"
)

// Runner is one reconciliation pass.
type Runner interface {
	RunOnce(ctx context.Context) (services.ReconcileReport, error)
}

// Scheduler runs the confirmation reconciler on a fixed interval. A pass that
// is still running when the next one is due delays it instead of overlapping.
type Scheduler struct {
	sched    gocron.Scheduler
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	job     gocron.Job
	started bool
}

func New(runner Runner, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sched:    sched,
		runner:   runner,
		interval: interval,
		timeout:  interval * 5,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the reconciliation job, runs it once immediately and then
// on every interval.
func (s *Scheduler) Start() error {
	job, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.run),
		gocron.WithName("confirmation-reconciler"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule confirmation reconciler: %w", err)
	}
	s.job = job
	s.started = true
	s.sched.Start()
	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
	return nil
}

// Stop cancels a running pass and waits for the scheduler to shut down.
func (s *Scheduler) Stop() error {
	s.cancel()
	if !s.started {
		return nil
	}
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// NextRun reports when the next scheduled pass is due.
func (s *Scheduler) NextRun() (time.Time, error) {
	if s.job == nil {
		return time.Time{}, fmt.Errorf("scheduler not started")
	}
	return s.job.NextRun()
}

// RunNow runs a pass synchronously, outside the schedule. It also works on a
// scheduler that was never started.
func (s *Scheduler) RunNow(ctx context.Context) (services.ReconcileReport, error) {
	return s.runner.RunOnce(ctx)
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	started := time.Now()
	report, err := s.runner.RunOnce(ctx)
	if err != nil {
		s.logger.Error("confirmation reconciliation failed", slog.Any("error", err), slog.Duration("took", time.Since(started)))
		return
	}
	if report.Failed > 0 {
		s.logger.Warn("confirmation reconciliation had failures",
			slog.Int("failed", report.Failed),
			slog.Int("scanned", report.Scanned),
		)
	}
}
