package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ihiteshgupta/daemonlink/internal/config"
	"github.com/ihiteshgupta/daemonlink/internal/metrics"
	"github.com/ihiteshgupta/daemonlink/internal/session"
	"github.com/ihiteshgupta/daemonlink/internal/state"
	"github.com/ihiteshgupta/daemonlink/internal/store"
)

type runOptions struct {
	pair   bool
	qrFile string
}

func runCommand(root *rootOptions) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the daemon and show the connection and pairing status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFunc(cmd.Context(), root, &opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.pair, "pair", false, "Request a pairing identifier once connected")
	flags.StringVar(&opts.qrFile, "qr-file", "", "Also write the pairing identifier as a PNG QR code")
	return cmd
}

func runFunc(ctx context.Context, root *rootOptions, opts *runOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg, os.Stderr)

	logger.Info("daemonlink starting",
		"config", root.configPath,
		"log_level", cfg.LogLevel,
	)

	// Ensure data directory exists (needed when using default ~/.daemonlink/ path)
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionOpts := []session.Option{session.WithStore(st), session.WithLogger(logger)}

	if cfg.MetricsEnabled {
		rec := metrics.NewRecorder(nil)
		sessionOpts = append(sessionOpts, session.WithMetrics(rec))
		shutdown := serveMetrics(cfg, rec, logger)
		defer shutdown()
	}

	s := session.New(cfg, sessionOpts...)

	paired := make(chan string, 1)
	s.OnTransition(func(t state.Transition) {
		switch t.Kind {
		case state.KindRegistration:
			if t.To != state.PhaseConnected {
				return
			}
			if id, ok := s.PairingID(); ok {
				select {
				case paired <- id:
				default:
				}
			}
		case state.KindConnection:
			// Ask for pairing once the sync request is out and no saved pairing was restored.
			if !opts.pair || s.Registration().Phase() != state.PhaseNotSent {
				return
			}
			if sync, ok := s.Connection().Sync(); ok && sync.IsRequested() {
				go func() {
					if err := s.RequestPairing(ctx); err != nil {
						logger.Error("failed to request pairing", "error", err)
					}
				}()
			}
		}
	})

	go func() {
		for {
			select {
			case id := <-paired:
				showPairing(os.Stderr, id, opts.qrFile, logger)
			case <-ctx.Done():
				return
			}
		}
	}()

	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		newRenderer(os.Stderr, s).run(ctx)
	}()

	err = s.Run(ctx)
	stop()
	<-renderDone

	if errors.Is(err, context.Canceled) {
		logger.Info("daemonlink stopped")
		return nil
	}
	return err
}

// serveMetrics exposes rec on the configured port and returns a shutdown func.
func serveMetrics(cfg *config.Config, rec *metrics.Recorder, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("failed to stop metrics server", "error", err)
		}
	}
}
