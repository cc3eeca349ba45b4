package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/audit"
	"github.com/Dosada05/tournament-engine/metrics"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/repositories/memory"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://results.example.com/" + key
}

func (u *fakeUploader) object(key string) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return bytes.Clone(u.objects[key])
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	deps     *Dependencies
	uploader *fakeUploader

	tournaments TournamentService
	matches     MatchService
	games       MatchGameService
	admin       AdminService
	singles     SingleGameService
	advancer    *StageAdvancer

	organizer models.Actor
	players   map[uuid.UUID]models.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.New()
	uploader := &fakeUploader{}
	deps := &Dependencies{
		Tx:          store,
		Tournaments: store.Tournaments(),
		Enrollments: store.Enrollments(),
		Standings:   store.Standings(),
		Matches:     store.Matches(),
		Games:       store.MatchGames(),
		Claims:      store.Claims(),
		AuditLog:    store.Audit(),
		SingleGames: store.SingleGames(),
		Audit:       audit.NewRepositorySink(store.Audit()),
		Archiver:    storage.NewResultsArchiver(uploader),
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	advancer := NewStageAdvancer(deps, DefaultAdvancerConfig())

	return &harness{
		t:           t,
		ctx:         context.Background(),
		store:       store,
		deps:        deps,
		uploader:    uploader,
		tournaments: NewTournamentService(deps, advancer),
		matches:     NewMatchService(deps),
		games:       NewMatchGameService(deps, advancer),
		admin:       NewAdminService(deps, advancer),
		singles:     NewSingleGameService(deps),
		advancer:    advancer,
		organizer:   models.Actor{UserID: uuid.New(), Role: models.RoleAdmin},
		players:     make(map[uuid.UUID]models.Actor),
	}
}

func (h *harness) newPlayer() models.Actor {
	actor := models.Actor{UserID: uuid.New(), Role: models.RolePlayer}
	h.players[actor.UserID] = actor
	return actor
}

func (h *harness) actor(userID uuid.UUID) models.Actor {
	actor, ok := h.players[userID]
	require.True(h.t, ok, "unknown player %s", userID)
	return actor
}

// openTournament creates a tournament, opens enrollment and enrolls n fresh players.
func (h *harness) openTournament(n int, totalRounds *int) (*models.Tournament, []models.Actor) {
	h.t.Helper()

	created, err := h.tournaments.CreateTournament(h.ctx, h.organizer, CreateTournamentInput{
		Title:       "Cup " + uuid.NewString()[:8],
		IsPublic:    true,
		TotalRounds: totalRounds,
		StartDate:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(h.t, err)

	_, err = h.tournaments.OpenEnrollment(h.ctx, h.organizer, created.ID)
	require.NoError(h.t, err)

	enrolled := make([]models.Actor, n)
	for i := range enrolled {
		enrolled[i] = h.newPlayer()
		_, err := h.tournaments.Enroll(h.ctx, enrolled[i], created.ID)
		require.NoError(h.t, err)
	}
	return created, enrolled
}

func (h *harness) start(tournamentID uuid.UUID) *models.Tournament {
	h.t.Helper()
	started, err := h.tournaments.StartTournament(h.ctx, h.organizer, tournamentID)
	require.NoError(h.t, err)
	return started
}

func (h *harness) tournament(id uuid.UUID) *models.Tournament {
	h.t.Helper()
	t, err := h.deps.Tournaments.GetByID(h.ctx, nil, id)
	require.NoError(h.t, err)
	return t
}

func (h *harness) stageMatches(tournamentID uuid.UUID, stage models.MatchStage) []*models.Match {
	h.t.Helper()
	matches, err := h.matches.ListTournamentMatches(h.ctx, tournamentID, &stage)
	require.NoError(h.t, err)
	return matches
}

func (h *harness) roundMatches(tournamentID uuid.UUID, round int) []*models.Match {
	h.t.Helper()
	stage := models.StageGroup
	matches, err := h.deps.Matches.List(h.ctx, nil, repositories.MatchFilter{
		TournamentID: &tournamentID,
		Round:        &round,
		Stage:        &stage,
	})
	require.NoError(h.t, err)
	return matches
}

func (h *harness) standing(tournamentID, userID uuid.UUID) models.Standing {
	h.t.Helper()
	s, err := h.deps.Standings.Get(h.ctx, nil, tournamentID, userID)
	require.NoError(h.t, err)
	return *s
}

// playGame runs one game through create, accept, report and confirm.
func (h *harness) playGame(m *models.Match, host models.Actor, winner uuid.UUID) *models.MatchGame {
	h.t.Helper()
	opponentID, ok := m.Opponent(host.UserID)
	require.True(h.t, ok)
	guest := h.actor(opponentID)

	game, err := h.games.CreateGame(h.ctx, host, m.ID, "ABC123")
	require.NoError(h.t, err)
	_, err = h.games.AcceptGame(h.ctx, guest, game.ID)
	require.NoError(h.t, err)
	_, err = h.games.ReportResult(h.ctx, host, game.ID, winner)
	require.NoError(h.t, err)
	confirmed, err := h.games.ConfirmResult(h.ctx, guest, game.ID)
	require.NoError(h.t, err)
	return confirmed
}

// playMatch has winner take two straight games hosted by side A.
func (h *harness) playMatch(m *models.Match, winner uuid.UUID) {
	h.t.Helper()
	host := h.actor(m.ASideID)
	for i := 0; i < models.WinningScore; i++ {
		h.playGame(m, host, winner)
	}
}

func intPtr(v int) *int { return &v }
