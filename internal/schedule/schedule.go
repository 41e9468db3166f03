package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"releasesync/internal/ingest"

	"github.com/robfig/cron/v3"
)

type Runner interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

type Config struct {
	Spec     string         // standard 5-field cron expression or @descriptor
	Location *time.Location // zone the expression is evaluated in
	Timeout  time.Duration  // wall-clock ceiling for one run
}

// Scheduler fires the sync on a cron schedule. At most one run is active at a
// time, whether it was started by the schedule or by RunNow.
type Scheduler struct {
	cron    *cron.Cron
	sched   cron.Schedule
	runner  Runner
	cfg     Config
	logger  *slog.Logger
	running atomic.Bool

	mu       sync.Mutex
	baseCtx  context.Context
	stopOnce sync.Once
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func New(cfg Config, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := parser.Parse(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Spec, err)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, sched: sched, runner: runner, cfg: cfg, logger: logger, baseCtx: context.Background()}, nil
}

// Start registers the sync job and starts the cron loop. The scheduler stops
// when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Schedule(s.sched, cron.FuncJob(s.fire))
	s.baseCtx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.cfg.Spec, "timezone", s.cfg.Location.String(), "next", s.Next())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for an in-flight run to finish. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("scheduler stopping")
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	})
}

// Next returns the next fire time after now.
func (s *Scheduler) Next() time.Time {
	return s.sched.Next(time.Now().In(s.cfg.Location))
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// RunNow runs the sync immediately under the configured timeout. It returns
// ingest.ErrRunInProgress when another run is active.
func (s *Scheduler) RunNow(ctx context.Context) (ingest.Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return ingest.Summary{}, ingest.ErrRunInProgress
	}
	defer s.running.Store(false)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.runner.Run(ctx)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	sum, err := s.RunNow(ctx)
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		s.logger.Warn("scheduled sync skipped, previous run still active")
	case err != nil:
		s.logger.Error("scheduled sync failed", "error", err, "saved", sum.Saved)
	default:
		s.logger.Info("scheduled sync done", "run_id", sum.RunID, "saved", sum.Saved, "next", s.Next())
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
