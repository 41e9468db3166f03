package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"releasesync/internal/provider"
	"releasesync/internal/release"
)

// Service runs every configured provider in order and writes what they emit.
// A failing provider, or a panicking one, never stops the providers after it.
type Service struct {
	providers []provider.Provider
	writer    *Writer
	runs      Repository
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithRunRepository enables run bookkeeping.
func WithRunRepository(r Repository) Option {
	return func(s *Service) { s.runs = r }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(providers []provider.Provider, writer *Writer, opts ...Option) *Service {
	s := &Service{
		providers: providers,
		writer:    writer,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one full sync. The returned error is non-nil only when the run
// could not start or the context ended it; provider and write failures are
// reported in the Summary.
func (s *Service) Run(ctx context.Context) (sum Summary, err error) {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}

	run := &Run{
		Status:    StatusRunning,
		StartedAt: s.now(),
		Providers: strings.Join(names, ","),
	}
	if s.runs != nil {
		runID, rErr := s.runs.CreateRun(ctx, run)
		if rErr != nil {
			return Summary{}, fmt.Errorf("create ingest run: %w", rErr)
		}
		run.ID = runID
	}
	sum.RunID = run.ID
	sum.StartedAt = run.StartedAt
	s.metrics.RunStarted()

	defer func() {
		now := s.now()
		sum.FinishedAt = now
		run.FinishedAt = &now
		run.Fetched = sum.Fetched()
		run.Saved = sum.Saved
		run.WriteErrors = sum.WriteErrors()
		run.Failures = len(sum.Failures())
		switch {
		case err != nil:
			run.Status = StatusFailed
			run.Error = err.Error()
		case sum.Degraded() || run.WriteErrors > 0:
			run.Status = StatusPartial
		default:
			run.Status = StatusCompleted
		}
		s.metrics.RunFinished(run.Status, now.Sub(run.StartedAt), now)

		if s.runs != nil {
			// the run context may already be canceled
			if updateErr := s.runs.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
				s.logger.Error("failed to update ingest run", "run_id", run.ID, "error", updateErr)
			}
		}
		s.logger.Info("sync finished",
			"run_id", run.ID,
			"status", run.Status,
			"saved", run.Saved,
			"fetched", run.Fetched,
			"write_errors", run.WriteErrors,
			"failures", run.Failures,
			"duration", now.Sub(run.StartedAt).String(),
		)
	}()

	for _, p := range s.providers {
		if ctx.Err() != nil {
			break
		}
		ps := s.runStage(ctx, p)
		s.metrics.ObserveProvider(ps)
		sum.Providers = append(sum.Providers, ps)
		sum.Saved += ps.Saved
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return sum, ctxErr
	}
	return sum, nil
}

func (s *Service) runStage(ctx context.Context, p provider.Provider) (ps ProviderSummary) {
	ps.Name = p.Name()
	start := s.now()
	logger := s.logger.With("provider", ps.Name)

	defer func() {
		if v := recover(); v != nil {
			f := release.Recovered(ps.Name, "stage", v)
			ps.Failures = append(ps.Failures, f)
			logger.Error("provider stage panicked", "error", f)
		}
		ps.Duration = s.now().Sub(start)
	}()

	res := p.Fetch(ctx)
	ps.Skipped = res.Skipped
	ps.Fetched = res.Fetched
	ps.Dropped = res.Dropped
	ps.Emitted = len(res.Records)
	ps.Failures = append(ps.Failures, res.Failures...)

	if res.Skipped {
		logger.Warn("provider skipped", "reason", skipReason(res.Failures))
		return ps
	}

	for _, rec := range res.Records {
		if ctx.Err() != nil {
			break
		}
		if rec.Source == "" {
			rec.Source = ps.Name
		}
		if _, err := s.writer.Upsert(ctx, rec); err != nil {
			if release.KindOf(err) == release.ErrKindDataQuality {
				ps.Dropped++
				logger.Debug("dropped item", "id", rec.ID, "title", rec.Title, "reason", err)
				continue
			}
			ps.WriteErrors++
			ps.Failures = append(ps.Failures, asFailure(ps.Name, err))
			logger.Error("failed to save item", "id", rec.ID, "title", rec.Title, "error", err)
			continue
		}
		ps.Saved++
	}

	logger.Info("provider done",
		"fetched", ps.Fetched,
		"dropped", ps.Dropped,
		"saved", ps.Saved,
		"write_errors", ps.WriteErrors,
		"failures", len(ps.Failures),
	)
	return ps
}

func asFailure(name string, err error) *release.Failure {
	if f, ok := err.(*release.Failure); ok {
		return f
	}
	return release.NewFailure(name, release.ErrKindPersistence, "write", err)
}

func skipReason(fs []*release.Failure) string {
	if len(fs) == 0 {
		return ""
	}
	return fs[0].Op
}
