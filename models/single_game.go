package models

import (
	"time"

	"github.com/google/uuid"
)

type SingleGameStatus string

// Лобби создаётся открытым; других статусов пока нет.
const SingleGameStatusOpen SingleGameStatus = "OPEN"

// SingleGame is a casual one-off game lobby outside any tournament. Every player can see it.
type SingleGame struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Title       string           `json:"title" db:"title"`
	Description *string          `json:"description,omitempty" db:"description"`
	Code        string           `json:"code" db:"code"`
	Status      SingleGameStatus `json:"status" db:"status"`
	CreatorID   uuid.UUID        `json:"creator_id" db:"creator_id"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
