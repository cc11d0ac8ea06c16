package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/backup"
	"github.com/gw/optlog/internal/config"
	"github.com/gw/optlog/internal/journal"
	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/logger"
	"github.com/gw/optlog/internal/server"
	"github.com/gw/optlog/internal/stream"
	"github.com/gw/optlog/internal/tradelog"
)

func main() {
	addr := flag.String("addr", "", "listen address (overrides OPTLOG_HTTP_ADDR)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// CLI overrides
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if cfg.Store == config.StoreRemote {
		fmt.Fprintln(os.Stderr, "config error: optlogd cannot use the remote store")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, log)
	if err != nil {
		log.Error("optlogd failed", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("optlogd starting",
		zap.String("store", cfg.Store),
		zap.String("addr", cfg.HTTPAddr),
	)

	backend, err := tradelog.FromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer backend.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := ledger.New(backend, ledger.WithLogger(log))
	hub := stream.NewHub(log)
	l.Subscribe(hub.Publish)

	if cfg.JournalDir != "" {
		j, err := journal.New(cfg.JournalDir, log)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()
		l.Subscribe(j.Record)
	}

	// A broken store starts the server empty; the error is already logged.
	_ = l.Load(ctx)

	if cfg.BackupSchedule != "" {
		runner := backup.NewRunner(log, ctx)
		snap := backup.NewSnapshotter(cfg.BackupDir, cfg.BackupKeep, l, log)
		if err := backup.Schedule(runner, cfg.BackupSchedule, snap); err != nil {
			return fmt.Errorf("scheduling backups: %w", err)
		}
		runner.Start()
		defer runner.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(server.Options{Ledger: l, Hub: hub, Logger: log, Debug: cfg.Log.Development}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("received signal, shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("optlogd stopped", zap.Int("trades", l.Len()))
	return serveErr
}
