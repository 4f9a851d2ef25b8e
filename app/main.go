package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-relay/app/api"
	"github.com/lysyi3m/rss-relay/app/cfg"
	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/tasks"
	"github.com/lysyi3m/rss-relay/app/zulip"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if appCfg == nil {
		return 0
	}

	closeLog, err := setupLogging(appCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	slog.Info("Starting RSS Relay", "version", appCfg.Version, "store", appCfg.Store, "feed_file", appCfg.FeedFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := database.NewRepository(ctx, database.StoreOptions{
		Kind:        appCfg.Store,
		DataDir:     appCfg.DataDir,
		SQLitePath:  appCfg.SQLitePath,
		RedisURL:    appCfg.RedisURL,
		RedisPrefix: appCfg.RedisPrefix,
	})
	if err != nil {
		slog.Error("Failed to open seen-entry store", "store", appCfg.Store, "error", err)
		return 1
	}
	defer repo.Close()

	sourceList := feed.NewSourceList(appCfg.FeedFile)
	if _, err := sourceList.Run(); err != nil {
		slog.Error("Failed to load feed list", "path", appCfg.FeedFile, "error", err)
		return 1
	}

	httpClient := &http.Client{}
	zulipClient := zulip.NewClient(appCfg.ZulipSite, appCfg.ZulipEmail, appCfg.ZulipAPIKey, appCfg.UserAgent, appCfg.SendTimeout)

	pipeline := tasks.Pipeline{
		Feeds:     feed.NewFetcher(httpClient, feed.NewParser(), appCfg.UserAgent, appCfg.FetchTimeout),
		Repo:      repo,
		Sender:    zulipClient,
		Sanitizer: feed.NewSanitizer(appCfg.Unwrap, appCfg.Math),
		Settings: tasks.Settings{
			MaxAge:         appCfg.MaxAge,
			BootstrapLimit: appCfg.BootstrapLimit,
			Topic:          appCfg.Topic,
			SenderEmail:    zulipClient.Email(),
			KeyMode:        database.KeyMode(appCfg.StateKey),
		},
	}

	if !appCfg.Daemon() {
		if _, err := tasks.RunOnce(ctx, sourceList, pipeline); err != nil {
			slog.Error("Run failed", "error", err)
			return 1
		}
		return 0
	}

	return runDaemon(ctx, appCfg, sourceList, pipeline)
}

func runDaemon(ctx context.Context, appCfg *cfg.Cfg, sourceList *feed.SourceList, pipeline tasks.Pipeline) int {
	scheduler, err := tasks.NewScheduler(appCfg.Schedule, sourceList, pipeline)
	if err != nil {
		slog.Error("Failed to create scheduler", "schedule", appCfg.Schedule, "error", err)
		return 1
	}

	slog.Info("Starting scheduler", "schedule", appCfg.Schedule)
	scheduler.Start()
	defer scheduler.Stop()

	serverErrChan := make(chan error, 1)
	var httpServer *http.Server
	if appCfg.Listen != "" {
		httpServer = &http.Server{
			Addr:         appCfg.Listen,
			Handler:      api.NewServer(api.NewHandler(scheduler, appCfg.Version)),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting status API", "address", appCfg.Listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
	}

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err := <-serverErrChan:
		slog.Error("Status API failed", "error", err)
		exitCode = 1
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	slog.Info("RSS Relay stopped")
	return exitCode
}

// setupLogging installs the default slog logger, writing to stderr and
// optionally appending to the configured log file.
func setupLogging(appCfg *cfg.Cfg) (func(), error) {
	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}

	if appCfg.LogFile != "" {
		f, err := os.OpenFile(appCfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return closeFn, nil
}
