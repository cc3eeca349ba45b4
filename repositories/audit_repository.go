package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

type AuditRepository interface {
	Append(ctx context.Context, exec SQLExecutor, event *models.AuditEvent) error
	// ListByEntity returns events oldest first.
	ListByEntity(ctx context.Context, exec SQLExecutor, entity string, entityID uuid.UUID) ([]*models.AuditEvent, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAuditRepository) Append(ctx context.Context, exec SQLExecutor, event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_log (action, entity, entity_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		event.Action, event.Entity, event.EntityID, event.UserID,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit event %q: %w", event.Action, err)
	}
	return nil
}

func (r *postgresAuditRepository) ListByEntity(ctx context.Context, exec SQLExecutor, entity string, entityID uuid.UUID) ([]*models.AuditEvent, error) {
	query := `
		SELECT action, entity, entity_id, user_id, created_at
		FROM audit_log
		WHERE entity = $1 AND entity_id = $2
		ORDER BY id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.AuditEvent, 0)
	for rows.Next() {
		e := &models.AuditEvent{}
		if err := rows.Scan(&e.Action, &e.Entity, &e.EntityID, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
