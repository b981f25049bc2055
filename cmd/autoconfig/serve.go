package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/autoconfig/internal/config"
	"github.com/yanizio/autoconfig/internal/logger"
	"github.com/yanizio/autoconfig/internal/requestinfo"
	"github.com/yanizio/autoconfig/internal/server"
	"github.com/yanizio/autoconfig/internal/source"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve autoconfig documents over HTTP",
	Long: `Start the HTTP server.

Routes:
  GET /mail/config-v1.1.xml?emailaddress=…
  GET /.well-known/autoconfig/mail/config-v1.1.xml?emailaddress=…
  GET /healthz
  GET /metrics

File sources are reloaded on change when source.watch is set.  MySQL
sources are polled every source.poll_interval.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Dir, cfg.Log.Level, runningInTTY())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Optional GeoIP database ──────────────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.GeoIP.Path); err != nil {
		log.Warnw("geoip disabled", "path", cfg.GeoIP.Path, "err", err)
	}
	defer requestinfo.CloseGeo()

	//
	// ── 2.  Settings source and first load ───────────────────────────────
	//
	store, closeFn, err := loadOnce(ctx, cfg, log)
	if err != nil {
		log.Errorw("initial load failed", "source", cfg.Source.Kind, "err", err)
		return err
	}
	defer closeFn()

	startReloaders(ctx, cfg, store, log)

	//
	// ── 3.  HTTP server ──────────────────────────────────────────────────
	//
	h := server.NewHandler(store, cfg.Cache.Size, log)
	srv := server.New(cfg.HTTP.ListenAddr, server.Router(h, server.Options{ForceHTTPS: cfg.HTTP.ForceHTTPS}))

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownGrace)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// startReloaders launches the watcher or poller for the source kind.
func startReloaders(ctx context.Context, cfg *config.Config, store *source.Store, log *zap.SugaredLogger) {
	switch {
	case cfg.Source.Kind == config.SourceFile && cfg.Source.Watch:
		go func() {
			if err := store.Watch(ctx, cfg.Source.File); err != nil {
				log.Errorw("watch stopped", "file", cfg.Source.File, "err", err)
			}
		}()
	case cfg.Source.PollInterval > 0:
		go store.Poll(ctx, cfg.Source.PollInterval)
	}
}
