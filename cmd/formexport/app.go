package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/rpattn/formexport/internal/archive"
	"github.com/rpattn/formexport/internal/config"
	"github.com/rpattn/formexport/internal/db"
	"github.com/rpattn/formexport/internal/events"
	"github.com/rpattn/formexport/internal/export"
	"github.com/rpattn/formexport/internal/handoff"
	"github.com/rpattn/formexport/internal/metrics"
	"github.com/rpattn/formexport/internal/notify"
	"github.com/rpattn/formexport/internal/repository"
	"github.com/rpattn/formexport/internal/storage"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      config.Config
	conn     *db.Connection
	settings *config.SettingsStore
	resolver *storage.Resolver
	metrics  *metrics.Collector
	audit    repository.AuditLogRepository
	exports  *export.Service
}

func newApp(ctx context.Context, cfg config.Config, v *viper.Viper) (*app, error) {
	settings, err := config.NewSettingsStore(v)
	if err != nil {
		return nil, err
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	roots := storage.DefaultRoots()
	for scheme, root := range cfg.Storage {
		roots[scheme] = root
	}
	resolver := storage.NewResolver(roots)

	archiver, err := archive.New(cfg.Export.Archiver, cfg.Export.ZipBinary)
	if err != nil {
		conn.Close()
		return nil, err
	}

	collector := metrics.NewCollector(prometheus.NewRegistry())

	submissions := repository.NewSubmissionRepository(conn.Pool)
	titles := repository.NewNodeTitleRepository(conn.Pool)
	audit := repository.NewAuditLogRepository(conn.Pool)

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		TLS:      cfg.Mail.TLS,
	})
	notifier := notify.NewService(mailer, audit, cfg.Mail.From, collector)

	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe(notifier.Handle)

	exports := export.NewService(
		submissions,
		titles,
		archive.NewService(resolver, archiver),
		resolver,
		settings,
		export.WithJobTimeout(cfg.Export.JobTimeout),
		export.WithLocation(cfg.Export.Location()),
		export.WithDispatcher(dispatcher),
		export.WithHandoffStore(handoff.NewStore(cfg.Export.HandoffTTL)),
		export.WithMetrics(collector),
	)

	return &app{
		cfg:      cfg,
		conn:     conn,
		settings: settings,
		resolver: resolver,
		metrics:  collector,
		audit:    audit,
		exports:  exports,
	}, nil
}

func (a *app) Close() {
	a.conn.Close()
}

func mustHaveSecret(cfg config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set FORMEXPORT_AUTH_JWT_SECRET)")
	}
	return nil
}
