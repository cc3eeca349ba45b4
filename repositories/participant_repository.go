package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var ErrEnrollmentConflict = errors.New("user is already enrolled in this tournament")

// EnrollmentRepository supplies the enrolled participants of a tournament.
type EnrollmentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, enrollment *models.Enrollment) error
	ListParticipants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]uuid.UUID, error)
	Count(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
}

type postgresEnrollmentRepository struct {
	db *sql.DB
}

func NewPostgresEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &postgresEnrollmentRepository{db: db}
}

func (r *postgresEnrollmentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEnrollmentRepository) Create(ctx context.Context, exec SQLExecutor, e *models.Enrollment) error {
	query := `INSERT INTO enrollments (tournament_id, user_id) VALUES ($1, $2) RETURNING joined_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, e.TournamentID, e.UserID).Scan(&e.JoinedAt)
	if _, ok := uniqueViolation(err); ok {
		return ErrEnrollmentConflict
	}
	return err
}

// ListParticipants returns user ids in enrollment order.
func (r *postgresEnrollmentRepository) ListParticipants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx,
		`SELECT user_id FROM enrollments WHERE tournament_id = $1 ORDER BY joined_at ASC, user_id ASC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresEnrollmentRepository) Count(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE tournament_id = $1`, tournamentID).Scan(&count)
	return count, err
}
