// Package memory keeps every repository in process. It enforces the same unique keys as the
// Postgres schema and gives WithinTx all-or-nothing semantics by restoring a snapshot on error.
// Calls made outside WithinTx wait for the open transaction, so they never see its writes
// before it commits and a rollback never discards them.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type standingKey struct {
	tournamentID uuid.UUID
	userID       uuid.UUID
}

type claimKey struct {
	tournamentID uuid.UUID
	key          string
}

type state struct {
	tournaments     map[uuid.UUID]*models.Tournament
	tournamentOrder []uuid.UUID
	enrollments     map[uuid.UUID][]models.Enrollment
	standings       map[standingKey]*models.Standing
	matches         map[uuid.UUID]*models.Match
	matchOrder      []uuid.UUID
	games           map[uuid.UUID]*models.MatchGame
	gameOrder       []uuid.UUID
	claims          map[claimKey]struct{}
	audit           []models.AuditEvent
	singleGames     []*models.SingleGame
}

func newState() state {
	return state{
		tournaments: make(map[uuid.UUID]*models.Tournament),
		enrollments: make(map[uuid.UUID][]models.Enrollment),
		standings:   make(map[standingKey]*models.Standing),
		matches:     make(map[uuid.UUID]*models.Match),
		games:       make(map[uuid.UUID]*models.MatchGame),
		claims:      make(map[claimKey]struct{}),
	}
}

func (s state) clone() state {
	c := newState()
	for id, t := range s.tournaments {
		c.tournaments[id] = cloneTournament(t)
	}
	c.tournamentOrder = append([]uuid.UUID(nil), s.tournamentOrder...)
	for id, list := range s.enrollments {
		c.enrollments[id] = append([]models.Enrollment(nil), list...)
	}
	for k, st := range s.standings {
		cp := *st
		c.standings[k] = &cp
	}
	for id, m := range s.matches {
		c.matches[id] = cloneMatch(m)
	}
	c.matchOrder = append([]uuid.UUID(nil), s.matchOrder...)
	for id, g := range s.games {
		c.games[id] = cloneGame(g)
	}
	c.gameOrder = append([]uuid.UUID(nil), s.gameOrder...)
	for k := range s.claims {
		c.claims[k] = struct{}{}
	}
	c.audit = append([]models.AuditEvent(nil), s.audit...)
	for _, g := range s.singleGames {
		c.singleGames = append(c.singleGames, cloneSingleGame(g))
	}
	return c
}

// Store holds all entities. The zero value is not usable; call New.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newState(), now: time.Now}
}

// txExecutor marks calls made inside WithinTx. Memory repositories never run SQL through it.
type txExecutor struct{ repositories.SQLExecutor }

// lock guards one repository call and returns the matching unlock.
func (s *Store) lock(exec repositories.SQLExecutor) func() {
	if _, inTx := exec.(txExecutor); inTx {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// WithinTx serializes transactions. fn must pass the executor it receives to every repository call.
func (s *Store) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) (txErr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		} else if txErr != nil {
			s.restore(snapshot)
		}
	}()
	return fn(txExecutor{})
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

func (s *Store) Tournaments() repositories.TournamentRepository { return tournamentRepo{s} }
func (s *Store) Enrollments() repositories.EnrollmentRepository { return enrollmentRepo{s} }
func (s *Store) Standings() repositories.StandingRepository     { return standingRepo{s} }
func (s *Store) Matches() repositories.MatchRepository          { return matchRepo{s} }
func (s *Store) MatchGames() repositories.MatchGameRepository   { return gameRepo{s} }
func (s *Store) Claims() repositories.ClaimRepository           { return claimRepo{s} }
func (s *Store) Audit() repositories.AuditRepository            { return auditRepo{s} }
func (s *Store) SingleGames() repositories.SingleGameRepository { return singleGameRepo{s} }

func cloneTournament(t *models.Tournament) *models.Tournament {
	cp := *t
	if t.Description != nil {
		d := *t.Description
		cp.Description = &d
	}
	if t.SlotsLimit != nil {
		v := *t.SlotsLimit
		cp.SlotsLimit = &v
	}
	if t.TotalRounds != nil {
		v := *t.TotalRounds
		cp.TotalRounds = &v
	}
	if t.EndDate != nil {
		v := *t.EndDate
		cp.EndDate = &v
	}
	if t.StartedAt != nil {
		v := *t.StartedAt
		cp.StartedAt = &v
	}
	if t.FinishedAt != nil {
		v := *t.FinishedAt
		cp.FinishedAt = &v
	}
	if t.ChampionID != nil {
		v := *t.ChampionID
		cp.ChampionID = &v
	}
	return &cp
}

func cloneMatch(m *models.Match) *models.Match {
	cp := *m
	cp.Games = nil
	if m.WinnerID != nil {
		v := *m.WinnerID
		cp.WinnerID = &v
	}
	return &cp
}

func cloneGame(g *models.MatchGame) *models.MatchGame {
	cp := *g
	if g.WinnerUserID != nil {
		v := *g.WinnerUserID
		cp.WinnerUserID = &v
	}
	if g.ReportedAt != nil {
		v := *g.ReportedAt
		cp.ReportedAt = &v
	}
	if g.ConfirmedAt != nil {
		v := *g.ConfirmedAt
		cp.ConfirmedAt = &v
	}
	return &cp
}
