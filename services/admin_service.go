package services

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var ErrAuditLogDisabled = errors.New("audit log storage is not configured")

// AdminService exposes the manual advancement triggers and the audit trail to tournament
// administrators. The triggers are idempotent and are normally fired by match settlement.
type AdminService interface {
	NextRound(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) error
	StartKnockout(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) error
	AdvanceKnockout(ctx context.Context, actor models.Actor, tournamentID uuid.UUID, stage models.MatchStage) error
	Finish(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (bool, error)
	// AuditTrail lists the tournament's events, or those of one of its games when gameID is set.
	AuditTrail(ctx context.Context, actor models.Actor, tournamentID uuid.UUID, gameID *uuid.UUID) ([]*models.AuditEvent, error)
}

type adminService struct {
	deps     *Dependencies
	advancer *StageAdvancer
}

func NewAdminService(deps *Dependencies, advancer *StageAdvancer) AdminService {
	return &adminService{deps: deps, advancer: advancer}
}

func (s *adminService) NextRound(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) error {
	return s.advancer.HandleNextRound(ctx, actor, tournamentID)
}

func (s *adminService) StartKnockout(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) error {
	return s.advancer.StartKnockoutStage(ctx, actor, tournamentID)
}

func (s *adminService) AdvanceKnockout(ctx context.Context, actor models.Actor, tournamentID uuid.UUID, stage models.MatchStage) error {
	return s.advancer.AdvanceKnockoutStage(ctx, actor, tournamentID, stage)
}

func (s *adminService) Finish(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (bool, error) {
	return s.advancer.FinishTournament(ctx, actor, tournamentID)
}

func (s *adminService) AuditTrail(ctx context.Context, actor models.Actor, tournamentID uuid.UUID, gameID *uuid.UUID) ([]*models.AuditEvent, error) {
	if s.deps.AuditLog == nil {
		return nil, ErrAuditLogDisabled
	}
	t, err := s.deps.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !t.IsAdmin(actor.UserID) {
		return nil, ErrNotTournamentAdmin
	}
	if gameID == nil {
		return s.deps.AuditLog.ListByEntity(ctx, nil, models.AuditEntityTournament, tournamentID)
	}

	game, err := s.deps.Games.GetByID(ctx, nil, *gameID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	m, err := s.deps.Matches.GetByID(ctx, nil, game.MatchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if m.TournamentID != tournamentID {
		return nil, ErrGameNotFound
	}
	return s.deps.AuditLog.ListByEntity(ctx, nil, models.AuditEntityMatchGame, *gameID)
}
