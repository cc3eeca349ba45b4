package memory

import (
	"context"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type singleGameRepo struct{ s *Store }

func (r singleGameRepo) Create(_ context.Context, exec repositories.SQLExecutor, g *models.SingleGame) error {
	defer r.s.lock(exec)()

	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = models.SingleGameStatusOpen
	}
	g.CreatedAt = r.s.now()
	r.s.data.singleGames = append(r.s.data.singleGames, cloneSingleGame(g))
	return nil
}

func (r singleGameRepo) List(_ context.Context, exec repositories.SQLExecutor, limit, offset int) ([]*models.SingleGame, error) {
	defer r.s.lock(exec)()

	result := make([]*models.SingleGame, 0)
	for i := len(r.s.data.singleGames) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, cloneSingleGame(r.s.data.singleGames[i]))
	}
	return result, nil
}

func cloneSingleGame(g *models.SingleGame) *models.SingleGame {
	cp := *g
	if g.Description != nil {
		d := *g.Description
		cp.Description = &d
	}
	return &cp
}
