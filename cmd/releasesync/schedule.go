package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"releasesync/internal/httpx"
	"releasesync/internal/ingest"
	"releasesync/internal/schedule"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the sync on SYNC_SCHEDULE and serve metrics and health checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			sched, err := schedule.New(schedule.Config{
				Spec:     a.cfg.Schedule,
				Location: a.cfg.Location,
				Timeout:  a.cfg.Timeout,
			}, a.service, a.logger)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.MetricsAddr,
				Handler:           newAdminHandler(a, sched),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("admin server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			if err := sched.Start(ctx); err != nil {
				return err
			}
			if runOnStart {
				go func() {
					if _, err := sched.RunNow(ctx); err != nil {
						a.logger.Error("startup sync failed", "error", err)
					}
				}()
			}

			select {
			case <-ctx.Done():
			case err = <-errCh:
				a.logger.Error("admin server failed", "error", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			sched.Stop()
			return err
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run one sync immediately after startup")
	return cmd
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newAdminHandler(a *app, sched *schedule.Scheduler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthz)
	var db pinger
	if a.pool != nil {
		db = a.pool
	}
	mux.HandleFunc("/readyz", readyz(db))
	syncHandler := ingest.NewHTTPHandler(sched, a.cfg.InternalSecret)
	mux.Handle("/internal/jobs/sync", httpx.ThrottleMiddleware(time.Minute, 1)(http.HandlerFunc(syncHandler.Sync)))

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(a.logger),
		httpx.RecoveryMiddleware(a.logger),
	)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func readyz(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
