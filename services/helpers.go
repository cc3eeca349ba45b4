package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-engine/audit"
	"github.com/Dosada05/tournament-engine/metrics"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/google/uuid"
)

// Dependencies are shared by every service. Archiver, Metrics and AuditLog may be nil.
type Dependencies struct {
	Tx          repositories.TxManager
	Tournaments repositories.TournamentRepository
	Enrollments repositories.EnrollmentRepository
	Standings   repositories.StandingRepository
	Matches     repositories.MatchRepository
	Games       repositories.MatchGameRepository
	Claims      repositories.ClaimRepository
	AuditLog    repositories.AuditRepository
	SingleGames repositories.SingleGameRepository

	Audit    audit.Sink
	Archiver *storage.ResultsArchiver
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Clock != nil {
		return d.Clock().UTC()
	}
	return time.Now().UTC()
}

// work is one top-level operation. Audit events and afterCommit hooks only run once the
// transaction commits, so a rolled-back operation leaves no trace.
type work struct {
	exec        repositories.SQLExecutor
	actor       models.Actor
	events      []models.AuditEvent
	afterCommit []func(ctx context.Context)
}

func (w *work) audit(action, entity string, entityID uuid.UUID) {
	w.events = append(w.events, models.AuditEvent{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		UserID:   w.actor.UserID,
	})
}

func (d *Dependencies) inTx(ctx context.Context, actor models.Actor, fn func(w *work) error) error {
	w := &work{actor: actor}
	err := d.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		w.exec = exec
		return fn(w)
	})
	if err != nil {
		return err
	}

	for _, e := range w.events {
		if d.Audit == nil {
			break
		}
		if auditErr := d.Audit.Record(ctx, e); auditErr != nil {
			d.Logger.WarnContext(ctx, "failed to record audit event",
				slog.String("action", e.Action),
				slog.String("entity_id", e.EntityID.String()),
				slog.Any("error", auditErr))
		}
	}
	for _, hook := range w.afterCommit {
		hook(ctx)
	}
	return nil
}

// mapRepoError translates repository sentinels into service errors of the right kind.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, repositories.ErrTournamentTitleConflict):
		return ErrTournamentTitleConflict
	case errors.Is(err, repositories.ErrEnrollmentConflict):
		return ErrAlreadyEnrolled
	case errors.Is(err, repositories.ErrActiveGameExists), errors.Is(err, repositories.ErrGameIndexConflict):
		return ErrGameActive
	}
	return err
}
