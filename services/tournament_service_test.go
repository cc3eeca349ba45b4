package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(title string) CreateTournamentInput {
	return CreateTournamentInput{
		Title:     title,
		IsPublic:  true,
		StartDate: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCreateTournament(t *testing.T) {
	h := newHarness(t)

	created, err := h.tournaments.CreateTournament(h.ctx, h.organizer, validInput("  Spring Open  "))
	require.NoError(t, err)
	assert.Equal(t, "Spring Open", created.Title)
	assert.Equal(t, models.StatusDraft, created.Status)
	assert.Equal(t, h.organizer.UserID, created.AdminID)
	assert.Zero(t, created.CurrentRound)

	_, err = h.tournaments.CreateTournament(h.ctx, h.organizer, validInput("Spring Open"))
	assert.ErrorIs(t, err, ErrTournamentTitleConflict)

	other := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	_, err = h.tournaments.CreateTournament(h.ctx, other, validInput("Spring Open"))
	assert.NoError(t, err, "titles are unique per administrator")

	_, err = h.tournaments.CreateTournament(h.ctx, h.newPlayer(), validInput("Player Cup"))
	assert.ErrorIs(t, err, ErrAdminRequired)
	assert.ErrorIs(t, err, ErrForbidden)

	events, err := h.admin.AuditTrail(h.ctx, h.organizer, created.ID, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "tournament created", events[0].Action)
}

func TestCreateTournament_Validation(t *testing.T) {
	h := newHarness(t)
	before := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*CreateTournamentInput)
		want   error
	}{
		{"blank title", func(in *CreateTournamentInput) { in.Title = "   " }, ErrTitleRequired},
		{"missing start date", func(in *CreateTournamentInput) { in.StartDate = time.Time{} }, ErrStartDateRequired},
		{"end before start", func(in *CreateTournamentInput) { in.EndDate = &before }, ErrInvalidDateRange},
		{"single slot", func(in *CreateTournamentInput) { in.SlotsLimit = intPtr(1) }, ErrInvalidSlotsLimit},
		{"zero rounds", func(in *CreateTournamentInput) { in.TotalRounds = intPtr(0) }, ErrInvalidTotalRounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput("Validation Cup")
			tt.mutate(&input)
			_, err := h.tournaments.CreateTournament(h.ctx, h.organizer, input)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestOpenEnrollment(t *testing.T) {
	h := newHarness(t)
	created, err := h.tournaments.CreateTournament(h.ctx, h.organizer, validInput("Open Cup"))
	require.NoError(t, err)

	intruder := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	_, err = h.tournaments.OpenEnrollment(h.ctx, intruder, created.ID)
	assert.ErrorIs(t, err, ErrNotTournamentAdmin)

	opened, err := h.tournaments.OpenEnrollment(h.ctx, h.organizer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, opened.Status)

	_, err = h.tournaments.OpenEnrollment(h.ctx, h.organizer, created.ID)
	assert.ErrorIs(t, err, ErrTournamentNotDraft)

	_, err = h.tournaments.OpenEnrollment(h.ctx, h.organizer, uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestEnroll(t *testing.T) {
	h := newHarness(t)
	input := validInput("Small Cup")
	input.SlotsLimit = intPtr(2)
	created, err := h.tournaments.CreateTournament(h.ctx, h.organizer, input)
	require.NoError(t, err)

	first := h.newPlayer()
	_, err = h.tournaments.Enroll(h.ctx, first, created.ID)
	assert.ErrorIs(t, err, ErrEnrollmentClosed)

	_, err = h.tournaments.OpenEnrollment(h.ctx, h.organizer, created.ID)
	require.NoError(t, err)

	enrollment, err := h.tournaments.Enroll(h.ctx, first, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, enrollment.UserID)

	_, err = h.tournaments.Enroll(h.ctx, first, created.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = h.tournaments.Enroll(h.ctx, h.newPlayer(), created.ID)
	require.NoError(t, err)
	_, err = h.tournaments.Enroll(h.ctx, h.newPlayer(), created.ID)
	assert.ErrorIs(t, err, ErrTournamentFull)

	h.start(created.ID)
	_, err = h.tournaments.Enroll(h.ctx, h.newPlayer(), created.ID)
	assert.ErrorIs(t, err, ErrEnrollmentClosed)

	participants, err := h.deps.Enrollments.ListParticipants(h.ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)
}

func TestGetTournament_PrivateVisibility(t *testing.T) {
	h := newHarness(t)
	input := validInput("Invite Only")
	input.IsPublic = false
	created, err := h.tournaments.CreateTournament(h.ctx, h.organizer, input)
	require.NoError(t, err)
	_, err = h.tournaments.OpenEnrollment(h.ctx, h.organizer, created.ID)
	require.NoError(t, err)

	member := h.newPlayer()
	_, err = h.tournaments.Enroll(h.ctx, member, created.ID)
	require.NoError(t, err)
	stranger := h.newPlayer()

	details, err := h.tournaments.GetTournament(h.ctx, h.organizer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{member.UserID}, details.Participants)

	_, err = h.tournaments.GetTournament(h.ctx, member, created.ID)
	assert.NoError(t, err)

	_, err = h.tournaments.GetTournament(h.ctx, stranger, created.ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	visible, err := h.tournaments.ListTournaments(h.ctx, member, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, created.ID, visible[0].ID)

	hidden, err := h.tournaments.ListTournaments(h.ctx, stranger, nil, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

type countingStandings struct {
	repositories.StandingRepository
	lists atomic.Int32
}

func (c *countingStandings) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) ([]*models.Standing, error) {
	c.lists.Add(1)
	return c.StandingRepository.ListByTournament(ctx, exec, tournamentID)
}

type countingMatches struct {
	repositories.MatchRepository
	lists atomic.Int32
}

func (c *countingMatches) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.MatchFilter) ([]*models.Match, error) {
	c.lists.Add(1)
	return c.MatchRepository.List(ctx, exec, filter)
}

func TestGetTournament_HiddenBeforeDetailsLoad(t *testing.T) {
	h := newHarness(t)
	input := validInput("Closed Doors")
	input.IsPublic = false
	created, err := h.tournaments.CreateTournament(h.ctx, h.organizer, input)
	require.NoError(t, err)

	standings := &countingStandings{StandingRepository: h.deps.Standings}
	matches := &countingMatches{MatchRepository: h.deps.Matches}
	h.deps.Standings = standings
	h.deps.Matches = matches

	_, err = h.tournaments.GetTournament(h.ctx, h.newPlayer(), created.ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.Zero(t, standings.lists.Load())
	assert.Zero(t, matches.lists.Load())

	_, err = h.tournaments.GetTournament(h.ctx, h.organizer, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, standings.lists.Load())
	assert.EqualValues(t, 1, matches.lists.Load())
}

func TestListTournaments(t *testing.T) {
	h := newHarness(t)
	opened, _ := h.openTournament(0, nil)
	draft, err := h.tournaments.CreateTournament(h.ctx, h.organizer, validInput("Draft Cup"))
	require.NoError(t, err)

	other := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	_, err = h.tournaments.CreateTournament(h.ctx, other, validInput("Elsewhere Cup"))
	require.NoError(t, err)

	mine, err := h.tournaments.ListTournaments(h.ctx, h.organizer, nil, 20, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	status := models.StatusDraft
	drafts, err := h.tournaments.ListTournaments(h.ctx, h.organizer, &status, 20, 0)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)

	status = models.StatusOpen
	open, err := h.tournaments.ListTournaments(h.ctx, h.newPlayer(), &status, 20, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, opened.ID, open[0].ID)

	bogus := models.TournamentStatus("archived")
	_, err = h.tournaments.ListTournaments(h.ctx, h.organizer, &bogus, 20, 0)
	assert.ErrorIs(t, err, ErrInvalidStatusFilter)
}

func TestGetTournament_RanksStandings(t *testing.T) {
	h := newHarness(t)
	tournament, _ := h.openTournament(2, nil)
	h.start(tournament.ID)

	opening := h.roundMatches(tournament.ID, 1)
	require.Len(t, opening, 1)
	h.playMatch(opening[0], opening[0].BSideID)

	details, err := h.tournaments.GetTournament(h.ctx, h.organizer, tournament.ID)
	require.NoError(t, err)
	require.Len(t, details.Standings, 2)
	assert.Equal(t, 1, details.Standings[0].Position)
	assert.Equal(t, opening[0].BSideID, details.Standings[0].UserID)
	assert.Equal(t, WinPoints, details.Standings[0].Points)
	assert.Equal(t, 2, details.Standings[1].Position)
	assert.Equal(t, LossPoints, details.Standings[1].Points)
	assert.NotEmpty(t, details.Matches)
}

func TestAuditTrail_RequiresTournamentAdmin(t *testing.T) {
	h := newHarness(t)
	tournament, players := h.openTournament(2, nil)

	_, err := h.admin.AuditTrail(h.ctx, players[0], tournament.ID, nil)
	assert.ErrorIs(t, err, ErrNotTournamentAdmin)

	_, err = h.admin.AuditTrail(h.ctx, h.organizer, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	stray := uuid.New()
	_, err = h.admin.AuditTrail(h.ctx, h.organizer, tournament.ID, &stray)
	assert.ErrorIs(t, err, ErrGameNotFound)

	events, err := h.admin.AuditTrail(h.ctx, h.organizer, tournament.ID, nil)
	require.NoError(t, err)
	actions := make([]string, len(events))
	for i, e := range events {
		actions[i] = e.Action
	}
	assert.Equal(t, []string{"tournament created", "enrollment opened"}, actions)
}

func TestAuditTrail_Disabled(t *testing.T) {
	h := newHarness(t)
	h.deps.AuditLog = nil
	tournament, _ := h.openTournament(0, nil)

	_, err := h.admin.AuditTrail(h.ctx, h.organizer, tournament.ID, nil)
	assert.ErrorIs(t, err, ErrAuditLogDisabled)
}
