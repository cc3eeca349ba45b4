package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusDraft    TournamentStatus = "draft"
	StatusOpen     TournamentStatus = "open"
	StatusGroups   TournamentStatus = "groups"
	StatusKnockout TournamentStatus = "knockout"
	StatusFinished TournamentStatus = "finished"
)

// tournamentStatusOrder fixes the only direction a tournament may move in.
var tournamentStatusOrder = map[TournamentStatus]int{
	StatusDraft:    0,
	StatusOpen:     1,
	StatusGroups:   2,
	StatusKnockout: 3,
	StatusFinished: 4,
}

var allowedTournamentTransitions = map[TournamentStatus][]TournamentStatus{
	StatusDraft:    {StatusOpen},
	StatusOpen:     {StatusGroups},
	StatusGroups:   {StatusKnockout},
	StatusKnockout: {StatusFinished},
	StatusFinished: {},
}

func (s TournamentStatus) Valid() bool {
	_, ok := tournamentStatusOrder[s]
	return ok
}

// CanTransitionTo reports whether next is the immediate successor of s.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	for _, allowed := range allowedTournamentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Tournament представляет турнир.
type Tournament struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Title       string           `json:"title" db:"title"`
	Description *string          `json:"description,omitempty" db:"description"`
	AdminID     uuid.UUID        `json:"admin_id" db:"admin_id"`
	IsPublic    bool             `json:"is_public" db:"is_public"`
	Status      TournamentStatus `json:"status" db:"status"`
	SlotsLimit  *int             `json:"slots_limit,omitempty" db:"slots_limit"`
	// TotalRounds is the Swiss phase length; nil until start unless set explicitly.
	TotalRounds  *int       `json:"total_rounds,omitempty" db:"total_rounds"`
	CurrentRound int        `json:"current_round" db:"current_round"`
	StartDate    time.Time  `json:"start_date" db:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty" db:"end_date"`
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	ChampionID   *uuid.UUID `json:"champion_id,omitempty" db:"champion_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether userID administers the tournament.
func (t *Tournament) IsAdmin(userID uuid.UUID) bool {
	return t != nil && t.AdminID == userID
}
