package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type MatchService interface {
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	ListTournamentMatches(ctx context.Context, tournamentID uuid.UUID, stage *models.MatchStage) ([]*models.Match, error)
	// ListMyMatches lists the actor's matches across tournaments, optionally by status.
	ListMyMatches(ctx context.Context, actor models.Actor, status *models.MatchStatus) ([]*models.Match, error)
}

type matchService struct {
	deps *Dependencies
}

func NewMatchService(deps *Dependencies) MatchService {
	return &matchService{deps: deps}
}

func (s *matchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	m, err := s.deps.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	games, err := s.deps.Games.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games of match %s: %w", matchID, err)
	}
	m.Games = games
	return m, nil
}

func (s *matchService) ListTournamentMatches(ctx context.Context, tournamentID uuid.UUID, stage *models.MatchStage) ([]*models.Match, error) {
	if stage != nil && !stage.Valid() {
		return nil, ErrInvalidStage
	}
	if _, err := s.deps.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.deps.Matches.List(ctx, nil, repositories.MatchFilter{TournamentID: &tournamentID, Stage: stage})
}

func (s *matchService) ListMyMatches(ctx context.Context, actor models.Actor, status *models.MatchStatus) ([]*models.Match, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidStatusFilter
	}
	return s.deps.Matches.List(ctx, nil, repositories.MatchFilter{ParticipantID: &actor.UserID, Status: status})
}

// matchStateMachine settles a match once a side reaches models.WinningScore.
type matchStateMachine struct {
	deps     *Dependencies
	advancer *StageAdvancer
}

// settle finishes m, applies the standings deltas and cascades into stage advancement.
// A match that was already finished is left alone.
func (sm *matchStateMachine) settle(ctx context.Context, w *work, m *models.Match) error {
	if !m.Decided() {
		return nil
	}
	if !m.Status.CanTransitionTo(models.MatchStatusFinished) {
		sm.deps.Logger.DebugContext(ctx, "match cannot finish",
			slog.String("match_id", m.ID.String()),
			slog.String("status", string(m.Status)))
		return nil
	}
	winner, loser := m.Leader()
	applied, err := sm.deps.Matches.Finish(ctx, w.exec, m.ID, winner)
	if err != nil {
		return fmt.Errorf("failed to finish match %s: %w", m.ID, err)
	}
	if !applied {
		sm.deps.Logger.DebugContext(ctx, "match already finished", slog.String("match_id", m.ID.String()))
		return nil
	}

	err = sm.deps.Standings.Increment(ctx, w.exec, m.TournamentID, winner,
		models.StandingDelta{Points: WinPoints, Wins: 1})
	if err != nil {
		return fmt.Errorf("failed to credit match winner %s: %w", winner, err)
	}
	err = sm.deps.Standings.Increment(ctx, w.exec, m.TournamentID, loser,
		models.StandingDelta{Points: LossPoints, Losses: 1})
	if err != nil {
		return fmt.Errorf("failed to credit match loser %s: %w", loser, err)
	}

	sm.deps.Metrics.MatchFinished(string(m.Stage))
	sm.deps.Logger.InfoContext(ctx, "match finished",
		slog.String("match_id", m.ID.String()),
		slog.String("tournament_id", m.TournamentID.String()),
		slog.String("stage", string(m.Stage)),
		slog.Int("round", m.Round),
		slog.String("winner_id", winner.String()))

	if err := sm.advancer.handleNextRound(ctx, w, m.TournamentID); err != nil {
		return err
	}
	if m.Stage.IsKnockout() {
		return sm.advancer.advanceKnockoutStage(ctx, w, m.TournamentID, m.Stage)
	}
	return nil
}
