package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type matchRepo struct{ s *Store }

func (r matchRepo) Create(_ context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	defer r.s.lock(exec)()

	if _, ok := r.s.data.tournaments[m.TournamentID]; !ok {
		return repositories.ErrMatchTournamentInvalid
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = r.s.now()
	r.s.data.matches[m.ID] = cloneMatch(m)
	r.s.data.matchOrder = append(r.s.data.matchOrder, m.ID)
	return nil
}

func (r matchRepo) GetByID(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Match, error) {
	defer r.s.lock(exec)()

	m, ok := r.s.data.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func matchesFilter(m *models.Match, f repositories.MatchFilter) bool {
	switch {
	case f.TournamentID != nil && m.TournamentID != *f.TournamentID:
		return false
	case f.Round != nil && m.Round != *f.Round:
		return false
	case f.Stage != nil && m.Stage != *f.Stage:
		return false
	case f.Status != nil && m.Status != *f.Status:
		return false
	case f.ParticipantID != nil && !m.HasParticipant(*f.ParticipantID):
		return false
	}
	return true
}

func (r matchRepo) List(_ context.Context, exec repositories.SQLExecutor, filter repositories.MatchFilter) ([]*models.Match, error) {
	defer r.s.lock(exec)()

	result := make([]*models.Match, 0)
	for _, id := range r.s.data.matchOrder {
		if m := r.s.data.matches[id]; matchesFilter(m, filter) {
			result = append(result, cloneMatch(m))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Round < result[j].Round })
	return result, nil
}

func (r matchRepo) Count(ctx context.Context, exec repositories.SQLExecutor, filter repositories.MatchFilter) (int, error) {
	list, err := r.List(ctx, exec, filter)
	return len(list), err
}

func (r matchRepo) MarkDisputed(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID) (bool, error) {
	defer r.s.lock(exec)()

	m, ok := r.s.data.matches[id]
	if !ok || !m.Status.CanTransitionTo(models.MatchStatusDisputed) {
		return false, nil
	}
	m.Status = models.MatchStatusDisputed
	return true, nil
}

func (r matchRepo) IncrementScore(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, winnerID uuid.UUID) (*models.Match, error) {
	defer r.s.lock(exec)()

	m, ok := r.s.data.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	switch winnerID {
	case m.ASideID:
		m.ScoreA = min(m.ScoreA+1, models.WinningScore)
	case m.BSideID:
		m.ScoreB = min(m.ScoreB+1, models.WinningScore)
	}
	return cloneMatch(m), nil
}

func (r matchRepo) Finish(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, winnerID uuid.UUID) (bool, error) {
	defer r.s.lock(exec)()

	m, ok := r.s.data.matches[id]
	if !ok || !m.Status.CanTransitionTo(models.MatchStatusFinished) {
		return false, nil
	}
	m.Status = models.MatchStatusFinished
	m.WinnerID = &winnerID
	return true, nil
}

type gameRepo struct{ s *Store }

func (r gameRepo) Create(_ context.Context, exec repositories.SQLExecutor, g *models.MatchGame) error {
	defer r.s.lock(exec)()

	for _, existing := range r.s.data.games {
		if existing.MatchID != g.MatchID {
			continue
		}
		if existing.Status.Active() {
			return repositories.ErrActiveGameExists
		}
		if existing.Index == g.Index {
			return repositories.ErrGameIndexConflict
		}
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.CreatedAt = r.s.now()
	r.s.data.games[g.ID] = cloneGame(g)
	r.s.data.gameOrder = append(r.s.data.gameOrder, g.ID)
	return nil
}

func (r gameRepo) GetByID(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.MatchGame, error) {
	defer r.s.lock(exec)()

	g, ok := r.s.data.games[id]
	if !ok {
		return nil, repositories.ErrMatchGameNotFound
	}
	return cloneGame(g), nil
}

func (r gameRepo) ListByMatch(_ context.Context, exec repositories.SQLExecutor, matchID uuid.UUID) ([]*models.MatchGame, error) {
	defer r.s.lock(exec)()

	result := make([]*models.MatchGame, 0)
	for _, id := range r.s.data.gameOrder {
		if g := r.s.data.games[id]; g.MatchID == matchID {
			result = append(result, cloneGame(g))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}

func (r gameRepo) CountByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID uuid.UUID) (int, error) {
	list, err := r.ListByMatch(ctx, exec, matchID)
	return len(list), err
}

func (r gameRepo) transition(exec repositories.SQLExecutor, id uuid.UUID, to models.GameStatus, fn func(*models.MatchGame)) (bool, error) {
	defer r.s.lock(exec)()

	g, ok := r.s.data.games[id]
	if !ok || !g.Status.CanTransitionTo(to) {
		return false, nil
	}
	g.Status = to
	if fn != nil {
		fn(g)
	}
	return true, nil
}

func (r gameRepo) Accept(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID) (bool, error) {
	return r.transition(exec, id, models.GameStatusInProgress, nil)
}

func (r gameRepo) Report(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, winnerID uuid.UUID, reportedAt time.Time) (bool, error) {
	return r.transition(exec, id, models.GameStatusWaitingConfirmation, func(g *models.MatchGame) {
		g.WinnerUserID = &winnerID
		g.ReportedAt = &reportedAt
	})
}

func (r gameRepo) Confirm(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, confirmedAt time.Time) (bool, error) {
	return r.transition(exec, id, models.GameStatusConfirmed, func(g *models.MatchGame) {
		g.ConfirmedAt = &confirmedAt
	})
}
