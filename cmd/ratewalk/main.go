package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/ratewalk/api"
	"github.com/use-agent/ratewalk/api/handler"
	"github.com/use-agent/ratewalk/cache"
	"github.com/use-agent/ratewalk/config"
	"github.com/use-agent/ratewalk/dataset"
	"github.com/use-agent/ratewalk/scraper"
	"github.com/use-agent/ratewalk/walker"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("ratewalk starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"startURL", cfg.Walker.StartURL,
	)

	// ── 3. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Walker)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4. Open the dataset every API walk is mirrored to ───────────
	out, err := dataset.Open(cfg.Dataset)
	if err != nil {
		slog.Error("failed to open dataset", "sink", cfg.Dataset.Sink, "path", cfg.Dataset.Path, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := out.Close(); err != nil {
			slog.Error("failed to close dataset", "error", err)
		}
	}()

	// ── 5. Shared state ─────────────────────────────────────────────
	// walkCtx outlives requests; it is canceled on shutdown and main waits
	// for running walks before the dataset and browser close.
	walkCtx, stopWalks := context.WithCancel(context.Background())
	defer stopWalks()

	jobs := handler.NewJobStore(walkCtx)

	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Close()

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(walkCtx, cfg, api.Deps{
		Browser: sc,
		Walker:  walker.New(cfg.Walker),
		Cache:   cc,
		Jobs:    jobs,
		Out:     out,
	}, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	stopWalks()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer waitCancel()
	if err := jobs.Wait(waitCtx); err != nil {
		slog.Error("walks still running at shutdown", "active", jobs.Active(), "error", err)
	} else {
		slog.Info("walks stopped")
	}

	// out.Close() and sc.Close() run via defer; the latter kills Chrome.
	slog.Info("ratewalk stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
