package services

import (
	"context"
	"fmt"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

// MatchGameService runs the per-game protocol: create, accept, report, confirm.
type MatchGameService interface {
	CreateGame(ctx context.Context, actor models.Actor, matchID uuid.UUID, code string) (*models.MatchGame, error)
	ListGames(ctx context.Context, matchID uuid.UUID) ([]*models.MatchGame, error)
	AcceptGame(ctx context.Context, actor models.Actor, gameID uuid.UUID) (*models.MatchGame, error)
	ReportResult(ctx context.Context, actor models.Actor, gameID uuid.UUID, winnerID uuid.UUID) (*models.MatchGame, error)
	ConfirmResult(ctx context.Context, actor models.Actor, gameID uuid.UUID) (*models.MatchGame, error)
}

type matchGameService struct {
	deps    *Dependencies
	matches *matchStateMachine
}

func NewMatchGameService(deps *Dependencies, advancer *StageAdvancer) MatchGameService {
	return &matchGameService{
		deps:    deps,
		matches: &matchStateMachine{deps: deps, advancer: advancer},
	}
}

func validateGameCode(code string) error {
	if utf8.RuneCountInString(code) != models.GameCodeLength {
		return ErrInvalidGameCode
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return ErrInvalidGameCode
		}
	}
	return nil
}

func (s *matchGameService) logger(game *models.MatchGame, actor models.Actor) *slog.Logger {
	return s.deps.Logger.With(
		slog.String("game_id", game.ID.String()),
		slog.String("match_id", game.MatchID.String()),
		slog.String("user_id", actor.UserID.String()),
	)
}

func (s *matchGameService) CreateGame(ctx context.Context, actor models.Actor, matchID uuid.UUID, code string) (*models.MatchGame, error) {
	if err := validateGameCode(code); err != nil {
		return nil, err
	}

	var game *models.MatchGame
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		m, err := s.deps.Matches.GetByID(ctx, w.exec, matchID)
		if err != nil {
			return mapRepoError(err)
		}
		if !m.HasParticipant(actor.UserID) {
			return ErrNotMatchParticipant
		}
		if m.Status == models.MatchStatusFinished || m.Decided() {
			return ErrMatchFinished
		}

		played, err := s.deps.Games.CountByMatch(ctx, w.exec, matchID)
		if err != nil {
			return err
		}

		// Create отклоняет игру, пока предыдущая не подтверждена
		game = &models.MatchGame{
			MatchID:    matchID,
			Index:      played + 1,
			HostUserID: actor.UserID,
			Code:       code,
			Status:     models.GameStatusPending,
		}
		if err := s.deps.Games.Create(ctx, w.exec, game); err != nil {
			return mapRepoError(err)
		}
		if m.Status.CanTransitionTo(models.MatchStatusDisputed) {
			if _, err := s.deps.Matches.MarkDisputed(ctx, w.exec, matchID); err != nil {
				return fmt.Errorf("failed to mark match %s disputed: %w", matchID, err)
			}
		}
		w.audit(fmt.Sprintf("game %d created", game.Index), models.AuditEntityMatchGame, game.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.GameTransition(string(models.GameStatusPending))
	s.logger(game, actor).InfoContext(ctx, "game created", slog.Int("index", game.Index))
	return game, nil
}

func (s *matchGameService) ListGames(ctx context.Context, matchID uuid.UUID) ([]*models.MatchGame, error) {
	if _, err := s.deps.Matches.GetByID(ctx, nil, matchID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.deps.Games.ListByMatch(ctx, nil, matchID)
}

// loadGame returns the game with its match.
func (s *matchGameService) loadGame(ctx context.Context, w *work, gameID uuid.UUID) (*models.MatchGame, *models.Match, error) {
	game, err := s.deps.Games.GetByID(ctx, w.exec, gameID)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	m, err := s.deps.Matches.GetByID(ctx, w.exec, game.MatchID)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	return game, m, nil
}

func (s *matchGameService) AcceptGame(ctx context.Context, actor models.Actor, gameID uuid.UUID) (*models.MatchGame, error) {
	var game *models.MatchGame
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		g, m, err := s.loadGame(ctx, w, gameID)
		if err != nil {
			return err
		}
		if !m.HasParticipant(actor.UserID) {
			return ErrNotMatchParticipant
		}
		if g.HostUserID == actor.UserID {
			return ErrHostCannotAccept
		}
		if !g.Status.CanTransitionTo(models.GameStatusInProgress) {
			return ErrGameNotPending
		}
		ok, err := s.deps.Games.Accept(ctx, w.exec, gameID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrGameNotPending
		}
		w.audit("game accepted", models.AuditEntityMatchGame, gameID)

		game, err = s.deps.Games.GetByID(ctx, w.exec, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.GameTransition(string(models.GameStatusInProgress))
	s.logger(game, actor).InfoContext(ctx, "game accepted")
	return game, nil
}

func (s *matchGameService) ReportResult(ctx context.Context, actor models.Actor, gameID uuid.UUID, winnerID uuid.UUID) (*models.MatchGame, error) {
	if winnerID == uuid.Nil {
		return nil, ErrWinnerRequired
	}

	var game *models.MatchGame
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		g, m, err := s.loadGame(ctx, w, gameID)
		if err != nil {
			return err
		}
		if g.HostUserID != actor.UserID {
			return ErrNotGameHost
		}
		if !g.Status.CanTransitionTo(models.GameStatusWaitingConfirmation) {
			return ErrGameNotInProgress
		}
		if !m.HasParticipant(winnerID) {
			return ErrWinnerNotMatchParticipant
		}
		ok, err := s.deps.Games.Report(ctx, w.exec, gameID, winnerID, s.deps.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrGameNotInProgress
		}
		w.audit("result reported: "+winnerID.String(), models.AuditEntityMatchGame, gameID)

		game, err = s.deps.Games.GetByID(ctx, w.exec, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.GameTransition(string(models.GameStatusWaitingConfirmation))
	s.logger(game, actor).InfoContext(ctx, "game result reported", slog.String("winner_id", winnerID.String()))
	return game, nil
}

// ConfirmResult credits the reported winner, which need not be the confirming side.
func (s *matchGameService) ConfirmResult(ctx context.Context, actor models.Actor, gameID uuid.UUID) (*models.MatchGame, error) {
	var game *models.MatchGame
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		g, m, err := s.loadGame(ctx, w, gameID)
		if err != nil {
			return err
		}
		opponent, ok := m.Opponent(g.HostUserID)
		if !ok || actor.UserID != opponent {
			return ErrNotHostOpponent
		}
		if !g.Status.CanTransitionTo(models.GameStatusConfirmed) || g.WinnerUserID == nil {
			return ErrGameNotAwaitingConfirm
		}
		confirmed, err := s.deps.Games.Confirm(ctx, w.exec, gameID, s.deps.now())
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrGameNotAwaitingConfirm
		}
		w.audit("confirmed by "+actor.UserID.String(), models.AuditEntityMatchGame, gameID)

		scored, err := s.deps.Matches.IncrementScore(ctx, w.exec, m.ID, *g.WinnerUserID)
		if err != nil {
			return fmt.Errorf("failed to update score of match %s: %w", m.ID, err)
		}
		if scored.Decided() && scored.Status != models.MatchStatusFinished {
			if err := s.matches.settle(ctx, w, scored); err != nil {
				return err
			}
		}

		game, err = s.deps.Games.GetByID(ctx, w.exec, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.GameTransition(string(models.GameStatusConfirmed))
	s.logger(game, actor).InfoContext(ctx, "game result confirmed")
	return game, nil
}
