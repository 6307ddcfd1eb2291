package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipvault/clipvault/app/api"
	"github.com/clipvault/clipvault/app/cfg"
	"github.com/clipvault/clipvault/app/config"
	"github.com/clipvault/clipvault/app/database"
	"github.com/clipvault/clipvault/app/extract"
	"github.com/clipvault/clipvault/app/images"
	"github.com/clipvault/clipvault/app/llm"
	"github.com/clipvault/clipvault/app/pipeline"
	"github.com/clipvault/clipvault/app/tasks"
	"github.com/clipvault/clipvault/app/vault"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting clipvault", "version", appCfg.Version, "port", appCfg.Port)

	db, err := database.NewConnection(appCfg.DataDir)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	articleRepo := database.NewArticleRepository(db)
	settingsStore := config.NewStore(appCfg.DataDir)

	if settings, err := settingsStore.Get(); err != nil {
		slog.Warn("Failed to load settings, defaults will be used", "error", err)
	} else if warnings := config.Validate(settings); len(warnings) > 0 {
		slog.Warn("Settings incomplete, saves will fail until configured", "missing", warnings)
	}

	hub := pipeline.NewHub()

	fetcher := extract.NewFetcher(&http.Client{Timeout: 30 * time.Second}, appCfg.UserAgent)
	extractor := extract.NewExtractor(fetcher)

	llmFactory := func(provider *config.LlmProvider) (pipeline.LlmService, error) {
		svc, err := llm.NewService(provider)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}

	writerFactory := func(vaultRoot string) pipeline.FileWriter {
		return vault.NewWriter(vaultRoot)
	}

	localizerFactory := func(writer pipeline.FileWriter, attachmentFolder string) pipeline.ImageLocalizer {
		return images.NewLocalizer(writer, attachmentFolder, appCfg.UserAgent)
	}

	orchestrator := pipeline.NewOrchestrator(extractor, llmFactory,
		writerFactory, localizerFactory, settingsStore, articleRepo, hub)

	scheduler := tasks.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(orchestrator, scheduler, settingsStore, articleRepo, hub)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "auth", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
