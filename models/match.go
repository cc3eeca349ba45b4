package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStage orders the phases of play: GROUP < QUARTER_FINAL < SEMI_FINAL < FINAL.
type MatchStage string

const (
	StageGroup        MatchStage = "GROUP"
	StageQuarterFinal MatchStage = "QUARTER_FINAL"
	StageSemiFinal    MatchStage = "SEMI_FINAL"
	StageFinal        MatchStage = "FINAL"
)

var stageOrder = []MatchStage{StageGroup, StageQuarterFinal, StageSemiFinal, StageFinal}

func (s MatchStage) Valid() bool {
	return s.index() >= 0
}

func (s MatchStage) index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s MatchStage) IsKnockout() bool {
	return s == StageQuarterFinal || s == StageSemiFinal || s == StageFinal
}

// Next returns the knockout stage that follows s. ok is false for FINAL and for GROUP,
// which never feeds the bracket directly.
func (s MatchStage) Next() (next MatchStage, ok bool) {
	if !s.IsKnockout() || s == StageFinal {
		return "", false
	}
	return stageOrder[s.index()+1], true
}

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "SCHEDULED"
	MatchStatusDisputed  MatchStatus = "DISPUTED"
	MatchStatusFinished  MatchStatus = "FINISHED"
)

var allowedMatchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusScheduled: {MatchStatusDisputed},
	MatchStatusDisputed:  {MatchStatusFinished},
	MatchStatusFinished:  {},
}

func (s MatchStatus) Valid() bool {
	_, ok := allowedMatchTransitions[s]
	return ok
}

func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range allowedMatchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// WinningScore is the number of game wins that decides a best-of-3 match.
const WinningScore = 2

// Match is a pairing of two participants inside one round or knockout stage.
type Match struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	TournamentID uuid.UUID   `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	Stage        MatchStage  `json:"stage" db:"stage"`
	ASideID      uuid.UUID   `json:"a_side_id" db:"a_side_id"`
	BSideID      uuid.UUID   `json:"b_side_id" db:"b_side_id"`
	ScoreA       int         `json:"score_a" db:"score_a"`
	ScoreB       int         `json:"score_b" db:"score_b"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerID     *uuid.UUID  `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Games []*MatchGame `json:"games,omitempty" db:"-"`
}

// HasParticipant reports whether userID plays on either side.
func (m *Match) HasParticipant(userID uuid.UUID) bool {
	return m.ASideID == userID || m.BSideID == userID
}

// Opponent returns the side opposite userID. ok is false if userID does not play in m.
func (m *Match) Opponent(userID uuid.UUID) (opponent uuid.UUID, ok bool) {
	switch userID {
	case m.ASideID:
		return m.BSideID, true
	case m.BSideID:
		return m.ASideID, true
	}
	return uuid.Nil, false
}

// Decided reports whether either side reached WinningScore.
func (m *Match) Decided() bool {
	return m.ScoreA >= WinningScore || m.ScoreB >= WinningScore
}

// Leader returns the side with the higher score and the other side.
func (m *Match) Leader() (winner, loser uuid.UUID) {
	if m.ScoreA > m.ScoreB {
		return m.ASideID, m.BSideID
	}
	return m.BSideID, m.ASideID
}
