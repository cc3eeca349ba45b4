package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalRounds(t *testing.T) {
	tests := map[int]int{1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 8: 4, 9: 5, 16: 5}
	for players, want := range tests {
		assert.Equal(t, want, TotalRounds(players), "players=%d", players)
	}
}

func TestStart_PairsRoundOneAndInitialisesStandings(t *testing.T) {
	h := newHarness(t)
	tournament, players := h.openTournament(4, nil)

	started := h.start(tournament.ID)
	assert.Equal(t, models.StatusGroups, started.Status)
	assert.Equal(t, 1, started.CurrentRound)
	require.NotNil(t, started.TotalRounds)
	assert.Equal(t, 3, *started.TotalRounds)
	assert.NotNil(t, started.StartedAt)

	matches := h.roundMatches(tournament.ID, 1)
	require.Len(t, matches, 2)
	assert.Equal(t, players[0].UserID, matches[0].ASideID)
	assert.Equal(t, players[1].UserID, matches[0].BSideID)
	assert.Equal(t, players[2].UserID, matches[1].ASideID)
	assert.Equal(t, players[3].UserID, matches[1].BSideID)

	for _, p := range players {
		s := h.standing(tournament.ID, p.UserID)
		assert.Zero(t, s.Points)
		assert.Zero(t, s.Wins)
		assert.Zero(t, s.Losses)
	}
}

func TestStart_OddFieldAwardsRoundOneBye(t *testing.T) {
	h := newHarness(t)
	tournament, players := h.openTournament(5, nil)
	h.start(tournament.ID)

	assert.Len(t, h.roundMatches(tournament.ID, 1), 2)
	bye := h.standing(tournament.ID, players[4].UserID)
	assert.Equal(t, 1, bye.Points)
	assert.Zero(t, bye.Wins)
}

func TestStart_Rejections(t *testing.T) {
	h := newHarness(t)

	lonely, _ := h.openTournament(1, nil)
	_, err := h.tournaments.StartTournament(h.ctx, h.organizer, lonely.ID)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
	assert.ErrorIs(t, err, ErrInvalidState)

	tournament, players := h.openTournament(2, nil)
	_, err = h.tournaments.StartTournament(h.ctx, players[0], tournament.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	h.start(tournament.ID)
	_, err = h.tournaments.StartTournament(h.ctx, h.organizer, tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotOpen)

	_, err = h.tournaments.StartTournament(h.ctx, h.organizer, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleNextRound_GeneratesNextSwissRound(t *testing.T) {
	h := newHarness(t)
	tournament, players := h.openTournament(4, intPtr(2))
	h.start(tournament.ID)

	round1 := h.roundMatches(tournament.ID, 1)
	h.playMatch(round1[0], players[0].UserID)
	assert.Equal(t, 1, h.tournament(tournament.ID).CurrentRound, "round stays open until every match finishes")
	h.playMatch(round1[1], players[2].UserID)

	current := h.tournament(tournament.ID)
	assert.Equal(t, models.StatusGroups, current.Status)
	assert.Equal(t, 2, current.CurrentRound)

	// Round 2 pairs the two winners and the two losers.
	round2 := h.roundMatches(tournament.ID, 2)
	require.Len(t, round2, 2)
	assert.ElementsMatch(t, []uuid.UUID{players[0].UserID, players[2].UserID}, []uuid.UUID{round2[0].ASideID, round2[0].BSideID})
	assert.ElementsMatch(t, []uuid.UUID{players[1].UserID, players[3].UserID}, []uuid.UUID{round2[1].ASideID, round2[1].BSideID})

	// Repeated triggers do nothing while round 2 is open.
	require.NoError(t, h.admin.NextRound(h.ctx, h.organizer, tournament.ID))
	require.NoError(t, h.admin.NextRound(h.ctx, h.organizer, tournament.ID))
	assert.Len(t, h.roundMatches(tournament.ID, 2), 2)
	assert.Empty(t, h.roundMatches(tournament.ID, 3))

	err := h.admin.NextRound(h.ctx, players[0], tournament.ID)
	assert.ErrorIs(t, err, ErrNotTournamentAdmin)
}

func TestTournament_FullLifecycle(t *testing.T) {
	h := newHarness(t)
	tournament, players := h.openTournament(4, intPtr(1))
	h.start(tournament.ID)

	round1 := h.roundMatches(tournament.ID, 1)
	require.Len(t, round1, 2)
	h.playMatch(round1[0], players[0].UserID)
	h.playMatch(round1[1], players[2].UserID)

	s0 := h.standing(tournament.ID, players[0].UserID)
	assert.Equal(t, WinPoints, s0.Points)
	assert.Equal(t, 1, s0.Wins)
	s1 := h.standing(tournament.ID, players[1].UserID)
	assert.Equal(t, LossPoints, s1.Points)
	assert.Equal(t, 1, s1.Losses)

	// The last group round feeds a four player bracket.
	knockout := h.tournament(tournament.ID)
	assert.Equal(t, models.StatusKnockout, knockout.Status)
	semis := h.stageMatches(tournament.ID, models.StageSemiFinal)
	require.Len(t, semis, 2)
	assert.Empty(t, h.stageMatches(tournament.ID, models.StageQuarterFinal))

	seeded := make(map[uuid.UUID]bool)
	for _, m := range semis {
		seeded[m.ASideID], seeded[m.BSideID] = true, true
		// Group winners are seeded on side A against group losers.
		assert.Equal(t, WinPoints, h.standing(tournament.ID, m.ASideID).Points)
		assert.Equal(t, LossPoints, h.standing(tournament.ID, m.BSideID).Points)
	}
	assert.Len(t, seeded, 4)

	require.NoError(t, h.admin.StartKnockout(h.ctx, h.organizer, tournament.ID))
	assert.Len(t, h.stageMatches(tournament.ID, models.StageSemiFinal), 2)

	h.playMatch(semis[0], semis[0].ASideID)
	assert.Empty(t, h.stageMatches(tournament.ID, models.StageFinal), "final waits for both semi finals")
	h.playMatch(semis[1], semis[1].ASideID)

	finals := h.stageMatches(tournament.ID, models.StageFinal)
	require.Len(t, finals, 1)
	final := finals[0]
	assert.Equal(t, semis[0].ASideID, final.ASideID)
	assert.Equal(t, semis[1].ASideID, final.BSideID)

	require.NoError(t, h.admin.AdvanceKnockout(h.ctx, h.organizer, tournament.ID, models.StageSemiFinal))
	assert.Len(t, h.stageMatches(tournament.ID, models.StageFinal), 1)

	finished, err := h.admin.Finish(h.ctx, h.organizer, tournament.ID)
	require.NoError(t, err)
	assert.False(t, finished, "final not played yet")

	champion, runnerUp := final.BSideID, final.ASideID
	before := h.standing(tournament.ID, champion)
	runnerBefore := h.standing(tournament.ID, runnerUp)
	h.playMatch(final, champion)

	done := h.tournament(tournament.ID)
	assert.Equal(t, models.StatusFinished, done.Status)
	require.NotNil(t, done.ChampionID)
	assert.Equal(t, champion, *done.ChampionID)
	assert.NotNil(t, done.FinishedAt)

	after := h.standing(tournament.ID, champion)
	assert.Equal(t, before.Points+WinPoints+ChampionPoints, after.Points)
	assert.Equal(t, before.Wins+2, after.Wins)
	runnerAfter := h.standing(tournament.ID, runnerUp)
	assert.Equal(t, runnerBefore.Points+LossPoints, runnerAfter.Points)
	assert.Equal(t, runnerBefore.Losses+1, runnerAfter.Losses)

	details, err := h.tournaments.GetTournament(h.ctx, players[0], tournament.ID)
	require.NoError(t, err)
	require.Len(t, details.Standings, 4)
	assert.Equal(t, champion, details.Standings[0].UserID)
	assert.Equal(t, 1, details.Standings[0].Position)
	assert.Len(t, details.Participants, 4)

	// Every step is a no-op once the tournament is over.
	require.NoError(t, h.admin.NextRound(h.ctx, h.organizer, tournament.ID))
	require.NoError(t, h.admin.StartKnockout(h.ctx, h.organizer, tournament.ID))
	require.NoError(t, h.admin.AdvanceKnockout(h.ctx, h.organizer, tournament.ID, models.StageSemiFinal))
	require.NoError(t, h.admin.AdvanceKnockout(h.ctx, h.organizer, tournament.ID, models.StageFinal))
	finished, err = h.admin.Finish(h.ctx, h.organizer, tournament.ID)
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Equal(t, after, h.standing(tournament.ID, champion))
	assert.Len(t, h.stageMatches(tournament.ID, models.StageFinal), 1)

	archived := h.uploader.object(storage.FinalStandingsKey(tournament.ID))
	require.NotEmpty(t, archived)
	var snapshot storage.FinalStandings
	require.NoError(t, json.Unmarshal(archived, &snapshot))
	assert.Equal(t, champion, snapshot.ChampionID)
	assert.Equal(t, champion, snapshot.Standings[0].UserID)

	events, err := h.admin.AuditTrail(h.ctx, h.organizer, tournament.ID, nil)
	require.NoError(t, err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, "tournament created")
	assert.Contains(t, actions, "knockout stage started: SEMI_FINAL")
	assert.Contains(t, actions, "knockout stage created: FINAL")
	assert.Contains(t, actions, "tournament finished, champion: "+champion.String())
}

func TestStartKnockout_CapsFieldAtPowerOfTwo(t *testing.T) {
	h := newHarness(t)
	tournament, players := h.openTournament(5, intPtr(1))
	h.start(tournament.ID)

	for _, m := range h.roundMatches(tournament.ID, 1) {
		h.playMatch(m, m.ASideID)
	}

	assert.Equal(t, models.StatusKnockout, h.tournament(tournament.ID).Status)
	semis := h.stageMatches(tournament.ID, models.StageSemiFinal)
	require.Len(t, semis, 2)

	// Winners and the bye holder (no losses) make the cut, one loser does not.
	seeded := make(map[uuid.UUID]bool)
	for _, m := range semis {
		seeded[m.ASideID], seeded[m.BSideID] = true, true
	}
	assert.Len(t, seeded, 4)
	assert.True(t, seeded[players[0].UserID])
	assert.True(t, seeded[players[2].UserID])
	assert.True(t, seeded[players[4].UserID])
	assert.NotEqual(t, seeded[players[1].UserID], seeded[players[3].UserID])
}

func TestAdvanceKnockout_RejectsGroupStage(t *testing.T) {
	h := newHarness(t)
	tournament, _ := h.openTournament(2, nil)

	err := h.admin.AdvanceKnockout(h.ctx, h.organizer, tournament.ID, models.StageGroup)
	assert.ErrorIs(t, err, ErrInvalidStage)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestConcurrentFinalConfirmationsAdvanceOnce(t *testing.T) {
	h := newHarness(t)
	tournament, _ := h.openTournament(4, intPtr(1))
	h.start(tournament.ID)

	round1 := h.roundMatches(tournament.ID, 1)
	pending := make([]*models.MatchGame, 0, len(round1))
	for _, m := range round1 {
		host := h.actor(m.ASideID)
		h.playGame(m, host, m.ASideID)

		game, err := h.games.CreateGame(h.ctx, host, m.ID, "XYZ789")
		require.NoError(t, err)
		_, err = h.games.AcceptGame(h.ctx, h.actor(m.BSideID), game.ID)
		require.NoError(t, err)
		_, err = h.games.ReportResult(h.ctx, host, game.ID, m.ASideID)
		require.NoError(t, err)
		pending = append(pending, game)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(pending))
	for i, game := range pending {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.games.ConfirmResult(h.ctx, h.actor(round1[i].BSideID), game.ID)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, models.StatusKnockout, h.tournament(tournament.ID).Status)
	assert.Len(t, h.stageMatches(tournament.ID, models.StageSemiFinal), 2)
}

// playOut lets side A win every open match until the tournament finishes.
func (h *harness) playOut(tournamentID uuid.UUID) {
	h.t.Helper()
	for range 64 {
		if h.tournament(tournamentID).Status == models.StatusFinished {
			return
		}
		matches, err := h.matches.ListTournamentMatches(h.ctx, tournamentID, nil)
		require.NoError(h.t, err)

		played := false
		for _, m := range matches {
			if m.Status == models.MatchStatusFinished {
				continue
			}
			h.playMatch(m, m.ASideID)
			played = true
		}
		require.True(h.t, played, "tournament stalled in status %s", h.tournament(tournamentID).Status)
	}
	h.t.Fatalf("tournament %s did not finish", tournamentID)
}

func TestTournament_BoundaryFieldSizes(t *testing.T) {
	tests := []struct {
		players    int
		groupRound int
		bracket    models.MatchStage
		seeded     int
	}{
		{players: 2, groupRound: 2, bracket: models.StageFinal, seeded: 2},
		{players: 3, groupRound: 3, bracket: models.StageFinal, seeded: 2},
		{players: 5, groupRound: 4, bracket: models.StageSemiFinal, seeded: 4},
		{players: 8, groupRound: 4, bracket: models.StageQuarterFinal, seeded: 8},
		{players: 9, groupRound: 5, bracket: models.StageQuarterFinal, seeded: 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d players", tt.players), func(t *testing.T) {
			h := newHarness(t)
			tournament, _ := h.openTournament(tt.players, nil)
			h.start(tournament.ID)
			h.playOut(tournament.ID)

			finished := h.tournament(tournament.ID)
			assert.Equal(t, models.StatusFinished, finished.Status)
			lastGroupRound := 0
			for _, m := range h.stageMatches(tournament.ID, models.StageGroup) {
				lastGroupRound = max(lastGroupRound, m.Round)
			}
			assert.Equal(t, tt.groupRound, lastGroupRound)
			require.NotNil(t, finished.ChampionID)

			bracket := h.stageMatches(tournament.ID, tt.bracket)
			assert.Len(t, bracket, tt.seeded/2)

			finals := h.stageMatches(tournament.ID, models.StageFinal)
			require.Len(t, finals, 1)
			require.NotNil(t, finals[0].WinnerID)
			assert.Equal(t, *finals[0].WinnerID, *finished.ChampionID)

			details, err := h.tournaments.GetTournament(h.ctx, h.organizer, tournament.ID)
			require.NoError(t, err)
			require.Len(t, details.Standings, tt.players)
			assert.Equal(t, *finished.ChampionID, details.Standings[0].UserID)
		})
	}
}
