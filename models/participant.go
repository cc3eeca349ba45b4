package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment records a participant registered for a tournament.
type Enrollment struct {
	TournamentID uuid.UUID `json:"tournament_id" db:"tournament_id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt     time.Time `json:"joined_at" db:"joined_at"`
}
