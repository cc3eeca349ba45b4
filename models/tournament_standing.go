package models

import (
	"time"

	"github.com/google/uuid"
)

// Standing is one participant's accumulated record in a tournament.
type Standing struct {
	TournamentID uuid.UUID `json:"tournament_id" db:"tournament_id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Points       int       `json:"points" db:"points"`
	Wins         int       `json:"wins" db:"wins"`
	Losses       int       `json:"losses" db:"losses"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// StandingDelta is an additive change applied atomically to a Standing row.
type StandingDelta struct {
	Points int
	Wins   int
	Losses int
}

// RankedStanding is a Standing with its 1-based position in the table.
type RankedStanding struct {
	Position int `json:"position"`
	Standing
}
