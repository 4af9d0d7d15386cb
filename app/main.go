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

	"github.com/manhwawut/chapter-feed/app/api"
	"github.com/manhwawut/chapter-feed/app/cfg"
	"github.com/manhwawut/chapter-feed/app/database"
	"github.com/manhwawut/chapter-feed/app/feed"
	"github.com/manhwawut/chapter-feed/app/series"
	"github.com/manhwawut/chapter-feed/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting chapter-feed", "version", appCfg.Version, "storage", appCfg.Storage)

	if err := run(appCfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var catalog *series.Catalog
	if appCfg.CatalogFile != "" {
		catalog = series.NewCatalog(appCfg.CatalogFile)
		if err := catalog.Reload(); err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		if err := catalog.Watch(ctx); err != nil {
			slog.Warn("Catalog hot reload disabled", "path", appCfg.CatalogFile, "error", err)
		}
		slog.Info("Catalog loaded", "path", appCfg.CatalogFile, "series", catalog.Count())
	}

	fileStore := series.NewFileStore(appCfg.SeriesDir, catalog)

	var loader series.Loader = fileStore
	var scheduler tasks.TaskSchedulerInterface

	if appCfg.UsesSQLite() {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			return err
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

		repo := database.NewSeriesRepository(db)
		loader = repo

		importer := tasks.NewScheduler(fileStore, repo, tasks.SchedulerOptions{
			Interval:    time.Duration(appCfg.SchedulerInterval) * time.Second,
			WorkerCount: appCfg.WorkerCount,
		})
		importer.Start()
		defer importer.Stop()
		scheduler = importer

		slog.Info("Import scheduler started", "workers", appCfg.WorkerCount, "interval", time.Duration(appCfg.SchedulerInterval)*time.Second)
	}

	service := feed.NewService(loader, feed.Options{
		Workers:           appCfg.WorkerCount,
		Timeout:           appCfg.AggregateTimeout,
		RecentChapters:    appCfg.RecentChapters,
		WindowDays:        appCfg.WindowDays,
		ImageBaseURL:      appCfg.ImageBaseURL,
		CheckHistoryOrder: appCfg.Debug,
	})
	generator := feed.NewGenerator(appCfg.BaseUrl, appCfg.Port, appCfg.Version)

	var catalogAPI api.CatalogInterface
	if catalog != nil {
		catalogAPI = catalog
	}

	handler := api.NewHandler(service, generator, catalogAPI, scheduler, appCfg.WindowDays)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	slog.Info("HTTP server stopped")

	return nil
}
