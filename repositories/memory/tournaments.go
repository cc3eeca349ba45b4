package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type tournamentRepo struct{ s *Store }

func (r tournamentRepo) Create(_ context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	defer r.s.lock(exec)()

	for _, existing := range r.s.data.tournaments {
		if existing.AdminID == t.AdminID && existing.Title == t.Title {
			return repositories.ErrTournamentTitleConflict
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.StatusDraft
	}
	t.CurrentRound = 0
	t.CreatedAt = r.s.now()

	r.s.data.tournaments[t.ID] = cloneTournament(t)
	r.s.data.tournamentOrder = append(r.s.data.tournamentOrder, t.ID)
	return nil
}

func (r tournamentRepo) GetByID(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	defer r.s.lock(exec)()

	t, ok := r.s.data.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return cloneTournament(t), nil
}

// GetForUpdate needs no lock of its own: WithinTx already serializes transactions.
func (r tournamentRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r tournamentRepo) List(_ context.Context, exec repositories.SQLExecutor, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	defer r.s.lock(exec)()

	result := make([]*models.Tournament, 0)
	for _, id := range r.s.data.tournamentOrder {
		t := r.s.data.tournaments[id]
		if filter.AdminID != nil && t.AdminID != *filter.AdminID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.VisibleTo != nil && !t.IsPublic && !r.s.enrolledLocked(t.ID, *filter.VisibleTo) {
			continue
		}
		result = append(result, cloneTournament(t))
	}

	// start_date DESC, created_at DESC; later inserts win ties
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.After(result[j].StartDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*models.Tournament{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// mutate applies fn to the stored tournament when cond holds, reporting whether it did.
func (r tournamentRepo) mutate(exec repositories.SQLExecutor, id uuid.UUID, cond func(*models.Tournament) bool, fn func(*models.Tournament)) (bool, error) {
	defer r.s.lock(exec)()

	t, ok := r.s.data.tournaments[id]
	if !ok || !cond(t) {
		return false, nil
	}
	fn(t)
	return true, nil
}

func (r tournamentRepo) UpdateStatus(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error {
	ok, _ := r.mutate(exec, id,
		func(t *models.Tournament) bool { return t.Status == from },
		func(t *models.Tournament) { t.Status = to })
	if !ok {
		return repositories.ErrTournamentStatusConflict
	}
	return nil
}

func (r tournamentRepo) StartGroups(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, totalRounds int, startedAt time.Time) error {
	ok, _ := r.mutate(exec, id,
		func(t *models.Tournament) bool { return t.Status == models.StatusOpen },
		func(t *models.Tournament) {
			t.Status = models.StatusGroups
			t.CurrentRound = 1
			t.TotalRounds = &totalRounds
			t.StartedAt = &startedAt
		})
	if !ok {
		return repositories.ErrTournamentStatusConflict
	}
	return nil
}

func (r tournamentRepo) AdvanceRound(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, fromRound int) (bool, error) {
	return r.mutate(exec, id,
		func(t *models.Tournament) bool { return t.Status == models.StatusGroups && t.CurrentRound == fromRound },
		func(t *models.Tournament) { t.CurrentRound++ })
}

func (r tournamentRepo) StartKnockout(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID) (bool, error) {
	return r.mutate(exec, id,
		func(t *models.Tournament) bool { return t.Status == models.StatusGroups },
		func(t *models.Tournament) {
			t.Status = models.StatusKnockout
			t.CurrentRound = 1
		})
}

func (r tournamentRepo) Finish(_ context.Context, exec repositories.SQLExecutor, id uuid.UUID, championID uuid.UUID, finishedAt time.Time) (bool, error) {
	return r.mutate(exec, id,
		func(t *models.Tournament) bool { return t.Status == models.StatusKnockout },
		func(t *models.Tournament) {
			t.Status = models.StatusFinished
			t.CurrentRound = 0
			t.FinishedAt = &finishedAt
			t.ChampionID = &championID
		})
}
