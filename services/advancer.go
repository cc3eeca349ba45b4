package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/google/uuid"
)

const (
	WinPoints      = 2
	LossPoints     = 1
	ChampionPoints = 3
)

type AdvancerConfig struct {
	// KnockoutSize caps how many ranked players enter the bracket.
	KnockoutSize int
	ByePoints    int
}

func DefaultAdvancerConfig() AdvancerConfig {
	return AdvancerConfig{KnockoutSize: brackets.DefaultKnockoutSize, ByePoints: 1}
}

// StageAdvancer moves a tournament from enrollment through Swiss rounds and the knockout
// bracket to a champion. Every step is safe to call repeatedly: a step that finds nothing
// to do logs why and returns nil.
type StageAdvancer struct {
	deps *Dependencies
	cfg  AdvancerConfig
}

func NewStageAdvancer(deps *Dependencies, cfg AdvancerConfig) *StageAdvancer {
	if cfg.KnockoutSize <= 0 {
		cfg.KnockoutSize = brackets.DefaultKnockoutSize
	}
	if cfg.ByePoints < 0 {
		cfg.ByePoints = 0
	}
	return &StageAdvancer{deps: deps, cfg: cfg}
}

// TotalRounds is the Swiss phase length for playerCount players: ceil(log2(n)) + 1.
func TotalRounds(playerCount int) int {
	if playerCount < 2 {
		return 1
	}
	return bits.Len(uint(playerCount-1)) + 1
}

func roundClaim(round int) string               { return fmt.Sprintf("round:%d", round) }
func stageClaim(stage models.MatchStage) string { return "stage:" + string(stage) }

const finishClaim = "finish"

// requireAdmin guards the manual triggers. Match settlement calls the unexported steps directly.
func (a *StageAdvancer) requireAdmin(ctx context.Context, w *work, tournamentID uuid.UUID) error {
	t, err := a.deps.Tournaments.GetByID(ctx, w.exec, tournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	if !t.IsAdmin(w.actor.UserID) {
		return ErrNotTournamentAdmin
	}
	return nil
}

func (a *StageAdvancer) noop(ctx context.Context, step, reason string, tournamentID uuid.UUID, attrs ...any) {
	a.deps.Metrics.Noop(step, reason)
	args := append([]any{
		slog.String("tournament_id", tournamentID.String()),
		slog.String("reason", reason),
	}, attrs...)
	a.deps.Logger.DebugContext(ctx, step+": nothing to do", args...)
}

// Start opens the group phase: standings for every participant, round 1 paired by
// rematch-avoiding Swiss, byes credited.
func (a *StageAdvancer) Start(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (*models.Tournament, error) {
	var started *models.Tournament
	err := a.deps.inTx(ctx, actor, func(w *work) error {
		t, err := a.start(ctx, w, tournamentID)
		started = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

func (a *StageAdvancer) start(ctx context.Context, w *work, tournamentID uuid.UUID) (*models.Tournament, error) {
	t, err := a.deps.Tournaments.GetForUpdate(ctx, w.exec, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !t.IsAdmin(w.actor.UserID) {
		return nil, ErrNotTournamentAdmin
	}
	if t.Status != models.StatusOpen {
		return nil, ErrTournamentNotOpen
	}

	participants, err := a.deps.Enrollments.ListParticipants(ctx, w.exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of tournament %s: %w", tournamentID, err)
	}
	if len(participants) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	totalRounds := TotalRounds(len(participants))
	if t.TotalRounds != nil {
		totalRounds = *t.TotalRounds
	}
	if err := a.deps.Tournaments.StartGroups(ctx, w.exec, tournamentID, totalRounds, a.deps.now()); err != nil {
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			return nil, ErrTournamentNotOpen
		}
		return nil, err
	}
	if _, err := a.deps.Claims.Claim(ctx, w.exec, tournamentID, roundClaim(1)); err != nil {
		return nil, err
	}

	entries := make([]brackets.SwissEntry, len(participants))
	for i, userID := range participants {
		if err := a.deps.Standings.Reset(ctx, w.exec, tournamentID, userID); err != nil {
			return nil, fmt.Errorf("failed to initialise standing for user %s: %w", userID, err)
		}
		entries[i] = brackets.SwissEntry{UserID: userID}
	}

	round := brackets.SwissPairingsNoRepeat(entries, nil, 1)[0]
	if err := a.createMatches(ctx, w, tournamentID, 1, models.StageGroup, round.Matches()); err != nil {
		return nil, err
	}
	for _, userID := range round.Byes() {
		if err := a.awardBye(ctx, w, tournamentID, userID); err != nil {
			return nil, err
		}
	}

	w.audit("tournament started, round 1 created", models.AuditEntityTournament, tournamentID)
	a.deps.Metrics.Advanced("start")
	a.deps.Logger.InfoContext(ctx, "tournament started",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("participants", len(participants)),
		slog.Int("total_rounds", totalRounds),
		slog.Int("byes", len(round.Byes())))

	return a.deps.Tournaments.GetByID(ctx, w.exec, tournamentID)
}

func (a *StageAdvancer) awardBye(ctx context.Context, w *work, tournamentID, userID uuid.UUID) error {
	if a.cfg.ByePoints == 0 {
		return nil
	}
	err := a.deps.Standings.Increment(ctx, w.exec, tournamentID, userID, models.StandingDelta{Points: a.cfg.ByePoints})
	if err != nil {
		return fmt.Errorf("failed to award bye to user %s: %w", userID, err)
	}
	return nil
}

func (a *StageAdvancer) createMatches(ctx context.Context, w *work, tournamentID uuid.UUID, round int, stage models.MatchStage, pairs []brackets.Pairing) error {
	for _, p := range pairs {
		m := &models.Match{
			TournamentID: tournamentID,
			Round:        round,
			Stage:        stage,
			ASideID:      p.PlayerA,
			BSideID:      p.PlayerB,
			Status:       models.MatchStatusScheduled,
		}
		if err := a.deps.Matches.Create(ctx, w.exec, m); err != nil {
			return fmt.Errorf("failed to create %s match (round %d) for tournament %s: %w", stage, round, tournamentID, err)
		}
	}
	return nil
}

// HandleNextRound generates the next Swiss round once the current one is complete, or
// starts the knockout stage after the last Swiss round.
func (a *StageAdvancer) HandleNextRound(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) error {
	return a.deps.inTx(ctx, actor, func(w *work) error {
		if err := a.requireAdmin(ctx, w, tournamentID); err != nil {
			return err
		}
		return a.handleNextRound(ctx, w, tournamentID)
	})
}

func (a *StageAdvancer) handleNextRound(ctx context.Context, w *work, tournamentID uuid.UUID) error {
	const step = "next_round"

	t, err := a.deps.Tournaments.GetForUpdate(ctx, w.exec, tournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	if t.Status != models.StatusGroups {
		a.noop(ctx, step, "not in group phase", tournamentID, slog.String("status", string(t.Status)))
		return nil
	}

	current := t.CurrentRound
	round, stage := current, models.StageGroup
	total, err := a.deps.Matches.Count(ctx, w.exec, repositories.MatchFilter{
		TournamentID: &tournamentID,
		Round:        &round,
		Stage:        &stage,
	})
	if err != nil {
		return err
	}
	finishedStatus := models.MatchStatusFinished
	finished, err := a.deps.Matches.Count(ctx, w.exec, repositories.MatchFilter{
		TournamentID: &tournamentID,
		Round:        &round,
		Stage:        &stage,
		Status:       &finishedStatus,
	})
	if err != nil {
		return err
	}
	if finished < total {
		a.noop(ctx, step, "round incomplete", tournamentID,
			slog.Int("round", current), slog.Int("finished", finished), slog.Int("total", total))
		return nil
	}

	if t.TotalRounds == nil || current >= *t.TotalRounds {
		return a.startKnockoutStage(ctx, w, tournamentID)
	}

	next := current + 1
	won, err := a.deps.Claims.Claim(ctx, w.exec, tournamentID, roundClaim(next))
	if err != nil {
		return err
	}
	if !won {
		a.noop(ctx, step, "round already generated", tournamentID, slog.Int("round", next))
		return nil
	}
	advanced, err := a.deps.Tournaments.AdvanceRound(ctx, w.exec, tournamentID, current)
	if err != nil {
		return err
	}
	if !advanced {
		a.noop(ctx, step, "round already advanced", tournamentID, slog.Int("round", current))
		return nil
	}

	standings, err := a.deps.Standings.ListByTournament(ctx, w.exec, tournamentID)
	if err != nil {
		return err
	}
	entries := make([]brackets.SwissEntry, len(standings))
	for i, s := range standings {
		entries[i] = brackets.SwissEntry{UserID: s.UserID, Points: s.Points}
	}
	pairs := brackets.SwissPairings(entries, 1)[0]
	if err := a.createMatches(ctx, w, tournamentID, next, models.StageGroup, pairs.Matches()); err != nil {
		return err
	}
	for _, userID := range pairs.Byes() {
		// Only round 1 byes score.
		a.deps.Logger.InfoContext(ctx, "bye assigned",
			slog.String("tournament_id", tournamentID.String()),
			slog.String("user_id", userID.String()),
			slog.Int("round", next))
	}

	a.deps.Metrics.Advanced(step)
	a.deps.Logger.InfoContext(ctx, "next round generated",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("round", next),
		slog.Int("matches", len(pairs.Matches())))
	return nil
}

// StartKnockoutStage seeds the top of the standings into a single-elimination bracket.
func (a *StageAdvancer) StartKnockoutStage(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) error {
	return a.deps.inTx(ctx, actor, func(w *work) error {
		if err := a.requireAdmin(ctx, w, tournamentID); err != nil {
			return err
		}
		return a.startKnockoutStage(ctx, w, tournamentID)
	})
}

func (a *StageAdvancer) startKnockoutStage(ctx context.Context, w *work, tournamentID uuid.UUID) error {
	const step = "knockout_start"

	t, err := a.deps.Tournaments.GetForUpdate(ctx, w.exec, tournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	if t.Status != models.StatusGroups {
		a.noop(ctx, step, "not in group phase", tournamentID, slog.String("status", string(t.Status)))
		return nil
	}

	standings, err := a.deps.Standings.ListByTournament(ctx, w.exec, tournamentID)
	if err != nil {
		return err
	}
	ranked := RankStandings(standings, nil)
	field := brackets.KnockoutFieldSize(len(ranked), a.cfg.KnockoutSize)
	seeds := make([]uuid.UUID, 0, field)
	for _, r := range ranked[:field] {
		seeds = append(seeds, r.UserID)
	}
	pairs, stage, err := brackets.SeedKnockout(seeds)
	if err != nil {
		return invalidState(err.Error())
	}

	won, err := a.deps.Claims.Claim(ctx, w.exec, tournamentID, stageClaim(stage))
	if err != nil {
		return err
	}
	if !won {
		a.noop(ctx, step, "bracket already seeded", tournamentID, slog.String("stage", string(stage)))
		return nil
	}
	moved, err := a.deps.Tournaments.StartKnockout(ctx, w.exec, tournamentID)
	if err != nil {
		return err
	}
	if !moved {
		a.noop(ctx, step, "knockout already started", tournamentID)
		return nil
	}
	if err := a.createMatches(ctx, w, tournamentID, 1, stage, pairs); err != nil {
		return err
	}

	w.audit("knockout stage started: "+string(stage), models.AuditEntityTournament, tournamentID)
	a.deps.Metrics.Advanced(step)
	a.deps.Logger.InfoContext(ctx, "knockout stage started",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("stage", string(stage)),
		slog.Int("field", field))
	return nil
}

// AdvanceKnockoutStage pairs the winners of stage into the next stage, or finishes the
// tournament when stage is FINAL.
func (a *StageAdvancer) AdvanceKnockoutStage(ctx context.Context, actor models.Actor, tournamentID uuid.UUID, stage models.MatchStage) error {
	if !stage.IsKnockout() {
		return ErrInvalidStage
	}
	return a.deps.inTx(ctx, actor, func(w *work) error {
		if err := a.requireAdmin(ctx, w, tournamentID); err != nil {
			return err
		}
		return a.advanceKnockoutStage(ctx, w, tournamentID, stage)
	})
}

func (a *StageAdvancer) advanceKnockoutStage(ctx context.Context, w *work, tournamentID uuid.UUID, stage models.MatchStage) error {
	const step = "knockout_advance"

	t, err := a.deps.Tournaments.GetForUpdate(ctx, w.exec, tournamentID)
	if err != nil {
		return mapRepoError(err)
	}
	if t.Status == models.StatusFinished {
		a.noop(ctx, step, "tournament finished", tournamentID)
		return nil
	}
	if stage == models.StageFinal {
		_, err := a.finishTournament(ctx, w, tournamentID)
		return err
	}
	if t.Status != models.StatusKnockout {
		a.noop(ctx, step, "not in knockout phase", tournamentID, slog.String("status", string(t.Status)))
		return nil
	}

	finalStage := models.StageFinal
	finals, err := a.deps.Matches.Count(ctx, w.exec, repositories.MatchFilter{TournamentID: &tournamentID, Stage: &finalStage})
	if err != nil {
		return err
	}
	if finals > 0 {
		a.noop(ctx, step, "final already exists", tournamentID)
		return nil
	}

	next, ok := stage.Next()
	if !ok {
		return ErrInvalidStage
	}
	existing, err := a.deps.Matches.Count(ctx, w.exec, repositories.MatchFilter{TournamentID: &tournamentID, Stage: &next})
	if err != nil {
		return err
	}
	if existing > 0 {
		a.noop(ctx, step, "next stage already exists", tournamentID, slog.String("stage", string(next)))
		return nil
	}

	matches, err := a.deps.Matches.List(ctx, w.exec, repositories.MatchFilter{TournamentID: &tournamentID, Stage: &stage})
	if err != nil {
		return err
	}
	winners := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		if m.Status != models.MatchStatusFinished || m.WinnerID == nil {
			a.noop(ctx, step, "stage incomplete", tournamentID, slog.String("stage", string(stage)))
			return nil
		}
		winners = append(winners, *m.WinnerID)
	}
	if len(winners) < 2 {
		a.noop(ctx, step, "not enough winners", tournamentID,
			slog.String("stage", string(stage)), slog.Int("winners", len(winners)))
		return nil
	}

	won, err := a.deps.Claims.Claim(ctx, w.exec, tournamentID, stageClaim(next))
	if err != nil {
		return err
	}
	if !won {
		a.noop(ctx, step, "next stage already claimed", tournamentID, slog.String("stage", string(next)))
		return nil
	}
	pairs := brackets.PairWinners(winners)
	if err := a.createMatches(ctx, w, tournamentID, 1, next, pairs); err != nil {
		return err
	}

	w.audit("knockout stage created: "+string(next), models.AuditEntityTournament, tournamentID)
	a.deps.Metrics.Advanced(step)
	a.deps.Logger.InfoContext(ctx, "knockout stage advanced",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("from", string(stage)),
		slog.String("to", string(next)),
		slog.Int("matches", len(pairs)))
	return nil
}

// FinishTournament crowns the winner of the finished FINAL match. It reports false and
// changes nothing when there is no such match yet.
func (a *StageAdvancer) FinishTournament(ctx context.Context, actor models.Actor, tournamentID uuid.UUID) (bool, error) {
	var finished bool
	err := a.deps.inTx(ctx, actor, func(w *work) error {
		if err := a.requireAdmin(ctx, w, tournamentID); err != nil {
			return err
		}
		var err error
		finished, err = a.finishTournament(ctx, w, tournamentID)
		return err
	})
	return finished, err
}

func (a *StageAdvancer) finishTournament(ctx context.Context, w *work, tournamentID uuid.UUID) (bool, error) {
	const step = "finish"

	finalStage, finishedStatus := models.StageFinal, models.MatchStatusFinished
	finals, err := a.deps.Matches.List(ctx, w.exec, repositories.MatchFilter{
		TournamentID: &tournamentID,
		Stage:        &finalStage,
		Status:       &finishedStatus,
	})
	if err != nil {
		return false, err
	}
	champion := finalWinner(finals)
	if champion == nil {
		a.noop(ctx, step, "final not decided", tournamentID)
		return false, nil
	}

	won, err := a.deps.Claims.Claim(ctx, w.exec, tournamentID, finishClaim)
	if err != nil {
		return false, err
	}
	if !won {
		a.noop(ctx, step, "already finished", tournamentID)
		return false, nil
	}
	finishedAt := a.deps.now()
	ok, err := a.deps.Tournaments.Finish(ctx, w.exec, tournamentID, *champion, finishedAt)
	if err != nil {
		return false, err
	}
	if !ok {
		a.noop(ctx, step, "not in knockout phase", tournamentID)
		return false, nil
	}
	err = a.deps.Standings.Increment(ctx, w.exec, tournamentID, *champion,
		models.StandingDelta{Points: ChampionPoints, Wins: 1})
	if err != nil {
		return false, fmt.Errorf("failed to award champion bonus: %w", err)
	}

	w.audit("tournament finished, champion: "+champion.String(), models.AuditEntityTournament, tournamentID)
	a.deps.Metrics.Advanced(step)
	a.deps.Logger.InfoContext(ctx, "tournament finished",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("champion_id", champion.String()))

	if a.deps.Archiver != nil {
		championID := *champion
		w.afterCommit = append(w.afterCommit, func(ctx context.Context) {
			a.archive(ctx, tournamentID, championID, finishedAt)
		})
	}
	return true, nil
}

// archive uploads the final table. Failures are logged and counted, never returned.
func (a *StageAdvancer) archive(ctx context.Context, tournamentID, championID uuid.UUID, finishedAt time.Time) {
	logger := a.deps.Logger.With(slog.String("tournament_id", tournamentID.String()))

	t, err := a.deps.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		a.deps.Metrics.ArchiveFailed()
		logger.ErrorContext(ctx, "archive: failed to load tournament", slog.Any("error", err))
		return
	}
	standings, err := a.deps.Standings.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		a.deps.Metrics.ArchiveFailed()
		logger.ErrorContext(ctx, "archive: failed to load standings", slog.Any("error", err))
		return
	}

	result, err := a.deps.Archiver.Archive(ctx, storage.FinalStandings{
		TournamentID: tournamentID,
		Title:        t.Title,
		ChampionID:   championID,
		FinishedAt:   finishedAt,
		Standings:    RankStandings(standings, &championID),
	})
	if err != nil {
		a.deps.Metrics.ArchiveFailed()
		logger.ErrorContext(ctx, "archive: upload failed", slog.Any("error", err))
		return
	}
	logger.InfoContext(ctx, "final standings archived", slog.String("location", result.Location))
}
