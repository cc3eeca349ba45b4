package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-engine/models"
)

type CreateSingleGameInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Code        string  `json:"code"`
}

// SingleGameService manages casual lobbies that are not part of any tournament.
type SingleGameService interface {
	CreateSingleGame(ctx context.Context, actor models.Actor, input CreateSingleGameInput) (*models.SingleGame, error)
	ListSingleGames(ctx context.Context, limit, offset int) ([]*models.SingleGame, error)
}

type singleGameService struct {
	deps *Dependencies
}

func NewSingleGameService(deps *Dependencies) SingleGameService {
	return &singleGameService{deps: deps}
}

func (s *singleGameService) CreateSingleGame(ctx context.Context, actor models.Actor, input CreateSingleGameInput) (*models.SingleGame, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrLobbyTitleRequired
	}
	if err := validateGameCode(input.Code); err != nil {
		return nil, err
	}

	game := &models.SingleGame{
		Title:       title,
		Description: input.Description,
		Code:        input.Code,
		Status:      models.SingleGameStatusOpen,
		CreatorID:   actor.UserID,
	}
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		if err := s.deps.SingleGames.Create(ctx, w.exec, game); err != nil {
			return err
		}
		w.audit("single game created", models.AuditEntitySingleGame, game.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "single game created",
		slog.String("single_game_id", game.ID.String()),
		slog.String("user_id", actor.UserID.String()))
	return game, nil
}

// ListSingleGames is the same for every caller, newest lobbies first.
func (s *singleGameService) ListSingleGames(ctx context.Context, limit, offset int) ([]*models.SingleGame, error) {
	return s.deps.SingleGames.List(ctx, nil, limit, offset)
}
