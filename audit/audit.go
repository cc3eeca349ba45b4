// Package audit delivers append-only audit events. Delivery is fire-and-forget: callers log
// a failed Record and carry on.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
)

type Sink interface {
	Record(ctx context.Context, event models.AuditEvent) error
}

// RepositorySink appends events to the audit_log table.
type RepositorySink struct {
	repo repositories.AuditRepository
}

func NewRepositorySink(repo repositories.AuditRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Record(ctx context.Context, event models.AuditEvent) error {
	return s.repo.Append(ctx, nil, &event)
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, event models.AuditEvent) error {
	s.logger.InfoContext(ctx, "audit",
		slog.String("action", event.Action),
		slog.String("entity", event.Entity),
		slog.String("entity_id", event.EntityID.String()),
		slog.String("user_id", event.UserID.String()),
	)
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, event models.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
