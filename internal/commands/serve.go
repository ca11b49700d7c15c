package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/api"
	"github.com/tallyhq/tally/internal/history"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API and accept uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return runServe(cmd, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :5001)")

	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	log, err := logger.New(logger.Options{Level: a.cfg.Log.Level, Out: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := a.newServices(history.SourceUpload, ingest.NewMetrics(reg))
	if err != nil {
		return err
	}

	srv := api.New(api.Config{
		Logger:           log,
		Ledger:           svc.cache,
		Ingest:           svc.ingest,
		History:          svc.history,
		Gatherer:         reg,
		MaxUploadBytes:   a.cfg.Server.MaxUploadBytes,
		UploadsPerMinute: a.cfg.Server.UploadsPerMinute,
	})

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("ledger", svc.store.Path()).Msg("serving")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
