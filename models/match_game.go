package models

import (
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GameStatusPending             GameStatus = "PENDING"
	GameStatusInProgress          GameStatus = "IN_PROGRESS"
	GameStatusWaitingConfirmation GameStatus = "WAITING_CONFIRMATION"
	GameStatusConfirmed           GameStatus = "CONFIRMED"
)

// create -> accept -> report -> confirm
var allowedGameTransitions = map[GameStatus][]GameStatus{
	GameStatusPending:             {GameStatusInProgress},
	GameStatusInProgress:          {GameStatusWaitingConfirmation},
	GameStatusWaitingConfirmation: {GameStatusConfirmed},
	GameStatusConfirmed:           {},
}

func (s GameStatus) Valid() bool {
	_, ok := allowedGameTransitions[s]
	return ok
}

func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	for _, allowed := range allowedGameTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether the game still occupies its match's single active-game slot.
func (s GameStatus) Active() bool {
	return s != GameStatusConfirmed
}

// GameCodeLength is the length of the lobby code players exchange to join a game.
const GameCodeLength = 6

// MatchGame is one game of a best-of-3 series.
type MatchGame struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	MatchID      uuid.UUID  `json:"match_id" db:"match_id"`
	Index        int        `json:"index" db:"game_index"`
	HostUserID   uuid.UUID  `json:"host_user_id" db:"host_user_id"`
	Code         string     `json:"code" db:"code"`
	Status       GameStatus `json:"status" db:"status"`
	WinnerUserID *uuid.UUID `json:"winner_user_id,omitempty" db:"winner_user_id"`
	ReportedAt   *time.Time `json:"reported_at,omitempty" db:"reported_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
