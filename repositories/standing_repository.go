package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var ErrStandingNotFound = errors.New("tournament standing not found")

type StandingRepository interface {
	// Reset creates the (tournament, user) row or zeroes an existing one.
	Reset(ctx context.Context, exec SQLExecutor, tournamentID, userID uuid.UUID) error
	// Increment applies delta with in-place arithmetic rather than a read-modify-write.
	Increment(ctx context.Context, exec SQLExecutor, tournamentID, userID uuid.UUID, delta models.StandingDelta) error
	Get(ctx context.Context, exec SQLExecutor, tournamentID, userID uuid.UUID) (*models.Standing, error)
	// ListByTournament orders by points desc, wins desc, losses asc.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB // Main DB connection, can be used if exec is nil
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) Reset(ctx context.Context, exec SQLExecutor, tournamentID, userID uuid.UUID) error {
	query := `
		INSERT INTO standings (tournament_id, user_id, points, wins, losses, updated_at)
		VALUES ($1, $2, 0, 0, 0, NOW())
		ON CONFLICT (tournament_id, user_id)
		DO UPDATE SET points = 0, wins = 0, losses = 0, updated_at = NOW()`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, userID)
	return err
}

func (r *postgresStandingRepository) Increment(ctx context.Context, exec SQLExecutor, tournamentID, userID uuid.UUID, delta models.StandingDelta) error {
	query := `
		UPDATE standings
		SET points = points + $1, wins = wins + $2, losses = losses + $3, updated_at = NOW()
		WHERE tournament_id = $4 AND user_id = $5`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		delta.Points, delta.Wins, delta.Losses, tournamentID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) scanStanding(row rowScanner) (*models.Standing, error) {
	var s models.Standing
	err := row.Scan(&s.TournamentID, &s.UserID, &s.Points, &s.Wins, &s.Losses, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID, userID uuid.UUID) (*models.Standing, error) {
	query := `
		SELECT tournament_id, user_id, points, wins, losses, updated_at
		FROM standings
		WHERE tournament_id = $1 AND user_id = $2`
	return r.scanStanding(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, userID))
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]*models.Standing, error) {
	// This order should match idx_standings_ranking.
	query := `
		SELECT tournament_id, user_id, points, wins, losses, updated_at
		FROM standings
		WHERE tournament_id = $1
		ORDER BY points DESC, wins DESC, losses ASC, user_id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, errScan := r.scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
