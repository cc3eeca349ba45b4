package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditEntityTournament = "Tournament"
	AuditEntityMatchGame  = "MatchGame"
	AuditEntitySingleGame = "SingleGame"
)

// AuditEvent is an append-only record of a state change.
type AuditEvent struct {
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  uuid.UUID `json:"entity_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
