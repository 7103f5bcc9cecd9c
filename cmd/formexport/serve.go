package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpattn/formexport/internal/config"
	"github.com/rpattn/formexport/internal/export"
	"github.com/rpattn/formexport/internal/retention"
	"github.com/rpattn/formexport/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, export workers and retention scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, v, err := loadConfig()
		if err != nil {
			return err
		}
		if err := mustHaveSecret(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, v)
		if err != nil {
			return err
		}
		defer a.Close()

		logger := slog.Default()
		a.settings.OnChange(func(s config.Settings) {
			logger.Info("export settings changed",
				"tmp_folder_scheme", s.TmpFolderScheme,
				"tmp_files_max_age", s.TmpFilesMaxAge,
				"use_zip_password", s.UseZipPassword,
			)
		})
		a.settings.Watch(func(err error) {
			logger.Error("ignoring invalid config change", "error", err)
		})

		scheduler := retention.NewScheduler(retention.NewSweeper(a.resolver, a.settings, a.metrics), cfg.Retention.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}

		handler := export.NewHTTPHandler(a.exports, a.settings, a.metrics)
		server := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: router.New(router.Config{
				JWTSecret:      cfg.Auth.JWTSecret,
				AllowedOrigins: cfg.HTTP.AllowedOrigins,
				Logger:         logger,
			}, handler, a.metrics),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}

		serverErr := make(chan error, 1)
		go func() {
			logger.Info("starting HTTP server", "addr", cfg.HTTP.Addr, "version", Version)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
			close(serverErr)
		}()

		select {
		case err := <-serverErr:
			if err != nil {
				return err
			}
		case <-ctx.Done():
		}
		logger.Info("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
		if err := a.exports.Shutdown(shutdownCtx); err != nil {
			logger.Error("export workers did not stop in time", "error", err)
		}
		scheduler.Stop()
		logger.Info("server exited")
		return nil
	},
}
