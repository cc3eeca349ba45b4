package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	IsPublic    bool       `json:"is_public"`
	SlotsLimit  *int       `json:"slots_limit,omitempty"`
	TotalRounds *int       `json:"total_rounds,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// TournamentDetails is a tournament with everything needed to render it.
type TournamentDetails struct {
	Tournament   *models.Tournament      `json:"tournament"`
	Standings    []models.RankedStanding `json:"standings"`
	Matches      []*models.Match         `json:"matches"`
	Participants []uuid.UUID             `json:"participants"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, actor models.Actor, input CreateTournamentInput) (*models.Tournament, error)
	OpenEnrollment(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*models.Tournament, error)
	Enroll(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*models.Enrollment, error)
	StartTournament(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*models.Tournament, error)
	GetTournament(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*TournamentDetails, error)
	ListTournaments(ctx context.Context, actor models.Actor, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
}

type tournamentService struct {
	deps     *Dependencies
	advancer *StageAdvancer
}

func NewTournamentService(deps *Dependencies, advancer *StageAdvancer) TournamentService {
	return &tournamentService{deps: deps, advancer: advancer}
}

func validateCreateInput(input *CreateTournamentInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return ErrTitleRequired
	}
	if input.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return ErrInvalidDateRange
	}
	if input.SlotsLimit != nil && *input.SlotsLimit < 2 {
		return ErrInvalidSlotsLimit
	}
	if input.TotalRounds != nil && *input.TotalRounds < 1 {
		return ErrInvalidTotalRounds
	}
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, actor models.Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	t := &models.Tournament{
		Title:       input.Title,
		Description: input.Description,
		AdminID:     actor.UserID,
		IsPublic:    input.IsPublic,
		Status:      models.StatusDraft,
		SlotsLimit:  input.SlotsLimit,
		TotalRounds: input.TotalRounds,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		if err := s.deps.Tournaments.Create(ctx, w.exec, t); err != nil {
			return mapRepoError(err)
		}
		w.audit("tournament created", models.AuditEntityTournament, t.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", t.ID.String()),
		slog.String("user_id", actor.UserID.String()))
	return t, nil
}

func (s *tournamentService) OpenEnrollment(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*models.Tournament, error) {
	var opened *models.Tournament
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		t, err := s.deps.Tournaments.GetForUpdate(ctx, w.exec, tournamentID)
		if err != nil {
			return mapRepoError(err)
		}
		if !t.IsAdmin(actor.UserID) {
			return ErrNotTournamentAdmin
		}
		if !t.Status.CanTransitionTo(models.StatusOpen) {
			return ErrTournamentNotDraft
		}
		err = s.deps.Tournaments.UpdateStatus(ctx, w.exec, tournamentID, t.Status, models.StatusOpen)
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			return ErrTournamentNotDraft
		}
		if err != nil {
			return err
		}
		w.audit("enrollment opened", models.AuditEntityTournament, tournamentID)

		opened, err = s.deps.Tournaments.GetByID(ctx, w.exec, tournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return opened, nil
}

func (s *tournamentService) Enroll(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{TournamentID: tournamentID, UserID: actor.UserID}
	err := s.deps.inTx(ctx, actor, func(w *work) error {
		// The row lock keeps concurrent enrollments from overfilling slots.
		t, err := s.deps.Tournaments.GetForUpdate(ctx, w.exec, tournamentID)
		if err != nil {
			return mapRepoError(err)
		}
		if t.Status != models.StatusOpen {
			return ErrEnrollmentClosed
		}
		if t.SlotsLimit != nil {
			count, err := s.deps.Enrollments.Count(ctx, w.exec, tournamentID)
			if err != nil {
				return err
			}
			if count >= *t.SlotsLimit {
				return ErrTournamentFull
			}
		}
		return mapRepoError(s.deps.Enrollments.Create(ctx, w.exec, enrollment))
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "participant enrolled",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("user_id", actor.UserID.String()))
	return enrollment, nil
}

func (s *tournamentService) StartTournament(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*models.Tournament, error) {
	return s.advancer.Start(ctx, actor, tournamentID)
}

// GetTournament loads standings and matches in parallel. Private tournaments are visible to
// their administrator and enrolled participants only.
func (s *tournamentService) GetTournament(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*TournamentDetails, error) {
	t, err := s.deps.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	participants, err := s.deps.Enrollments.ListParticipants(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	if !t.IsPublic && !t.IsAdmin(actor.UserID) && !containsUser(participants, actor.UserID) {
		return nil, ErrTournamentNotFound
	}

	details := &TournamentDetails{Tournament: t, Participants: participants}
	var standings []*models.Standing

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standings, err = s.deps.Standings.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load standings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		details.Matches, err = s.deps.Matches.List(gCtx, nil, repositories.MatchFilter{TournamentID: &tournamentID})
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.deps.Logger.ErrorContext(ctx, "failed to load tournament details",
			slog.String("tournament_id", tournamentID.String()),
			slog.Any("error", err))
		return nil, err
	}

	var champion *uuid.UUID
	if t.Status == models.StatusFinished {
		champion = finalWinner(details.Matches)
	}
	details.Standings = RankStandings(standings, champion)
	return details, nil
}

func containsUser(ids []uuid.UUID, userID uuid.UUID) bool {
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}

// ListTournaments shows administrators their own tournaments and players the public ones
// plus those they are enrolled in.
func (s *tournamentService) ListTournaments(ctx context.Context, actor models.Actor, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidStatusFilter
	}
	filter := repositories.ListTournamentsFilter{Status: status, Limit: limit, Offset: offset}
	if actor.IsAdmin() {
		filter.AdminID = &actor.UserID
	} else {
		filter.VisibleTo = &actor.UserID
	}
	return s.deps.Tournaments.List(ctx, nil, filter)
}
