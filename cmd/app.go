package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-engine/audit"
	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/metrics"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/repositories/memory"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type app struct {
	deps    *services.Dependencies
	closers []func() error
	logger  *slog.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", slog.Any("error", err))
		}
	}
}

// buildApp wires storage, the audit sinks, metrics and the optional archiver.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*app, error) {
	a := &app{logger: logger}
	deps := &services.Dependencies{Logger: logger}
	var sinks audit.Multi

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.New()
		deps.Tx = store
		deps.Tournaments = store.Tournaments()
		deps.Enrollments = store.Enrollments()
		deps.Standings = store.Standings()
		deps.Matches = store.Matches()
		deps.Games = store.MatchGames()
		deps.Claims = store.Claims()
		deps.AuditLog = store.Audit()
		deps.SingleGames = store.SingleGames()
		logger.Warn("using in-memory store, data is lost on restart")

	case config.StoreDriverPostgres:
		conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, conn.Close)
		logger.Info("database connection established")

		if migrate {
			if err := db.Migrate(ctx, conn); err != nil {
				a.Close()
				return nil, err
			}
			logger.Info("schema applied")
		}

		deps.Tx = repositories.NewPostgresTxManager(conn, logger)
		deps.Tournaments = repositories.NewPostgresTournamentRepository(conn)
		deps.Enrollments = repositories.NewPostgresEnrollmentRepository(conn)
		deps.Standings = repositories.NewPostgresStandingRepository(conn)
		deps.Matches = repositories.NewPostgresMatchRepository(conn)
		deps.Games = repositories.NewPostgresMatchGameRepository(conn)
		deps.Claims = repositories.NewPostgresClaimRepository(conn)
		deps.AuditLog = repositories.NewPostgresAuditRepository(conn)
		deps.SingleGames = repositories.NewPostgresSingleGameRepository(conn)

	default:
		return nil, errors.New("unknown store driver " + cfg.StoreDriver)
	}
	sinks = append(sinks, audit.NewRepositorySink(deps.AuditLog), audit.NewLogSink(logger))

	if cfg.NATSURL != "" {
		nc, err := audit.ConnectNATS(cfg.NATSURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, nc.Drain)
		sinks = append(sinks, audit.NewNATSSink(nc))
		logger.Info("publishing audit events to NATS", slog.String("subject_prefix", audit.SubjectPrefix))
	}
	deps.Audit = sinks

	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		deps.Archiver = storage.NewResultsArchiver(uploader)
		logger.Info("Cloudflare R2 archiver initialized")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.New(registry)

	a.deps = deps
	return a, nil
}
