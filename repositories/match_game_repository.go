package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var (
	ErrMatchGameNotFound = errors.New("match game not found")
	// ErrActiveGameExists is returned when the match already holds an unconfirmed game.
	ErrActiveGameExists  = errors.New("match already has an active game")
	ErrGameIndexConflict = errors.New("match game index conflict")
)

type MatchGameRepository interface {
	// Create fails with ErrActiveGameExists if another game of the match is not yet confirmed.
	Create(ctx context.Context, exec SQLExecutor, game *models.MatchGame) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.MatchGame, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) ([]*models.MatchGame, error)
	CountByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) (int, error)
	// Accept, Report and Confirm apply only from their source status and report whether they did.
	Accept(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error)
	Report(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID, reportedAt time.Time) (bool, error)
	Confirm(ctx context.Context, exec SQLExecutor, id uuid.UUID, confirmedAt time.Time) (bool, error)
}

type postgresMatchGameRepository struct {
	db *sql.DB
}

func NewPostgresMatchGameRepository(db *sql.DB) MatchGameRepository {
	return &postgresMatchGameRepository{db: db}
}

func (r *postgresMatchGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchGameColumns = `
	id, match_id, game_index, host_user_id, code, status, winner_user_id, reported_at, confirmed_at, created_at`

func (r *postgresMatchGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.MatchGame) error {
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	query := `
		INSERT INTO match_games (id, match_id, game_index, host_user_id, code, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		game.ID, game.MatchID, game.Index, game.HostUserID, game.Code, game.Status,
	).Scan(&game.CreatedAt)

	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case "match_games_one_active_idx":
			return ErrActiveGameExists
		case "match_games_match_id_game_index_key":
			return ErrGameIndexConflict
		}
	}
	return err
}

func (r *postgresMatchGameRepository) scanGame(row rowScanner) (*models.MatchGame, error) {
	game := &models.MatchGame{}
	var winnerID uuid.NullUUID
	err := row.Scan(
		&game.ID, &game.MatchID, &game.Index, &game.HostUserID, &game.Code, &game.Status,
		&winnerID, &game.ReportedAt, &game.ConfirmedAt, &game.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchGameNotFound
		}
		return nil, fmt.Errorf("failed to scan match game: %w", err)
	}
	if winnerID.Valid {
		game.WinnerUserID = &winnerID.UUID
	}
	return game, nil
}

func (r *postgresMatchGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.MatchGame, error) {
	query := `SELECT ` + matchGameColumns + ` FROM match_games WHERE id = $1`
	return r.scanGame(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchGameRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) ([]*models.MatchGame, error) {
	query := `SELECT ` + matchGameColumns + ` FROM match_games WHERE match_id = $1 ORDER BY game_index ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for match %s: %w", matchID, err)
	}
	defer rows.Close()

	games := make([]*models.MatchGame, 0)
	for rows.Next() {
		game, scanErr := r.scanGame(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		games = append(games, game)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresMatchGameRepository) CountByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM match_games WHERE match_id = $1`, matchID).Scan(&count)
	return count, err
}

func (r *postgresMatchGameRepository) Accept(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error) {
	query := `UPDATE match_games SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.GameStatusInProgress, id, models.GameStatusPending)
	return applied(result, err)
}

func (r *postgresMatchGameRepository) Report(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID, reportedAt time.Time) (bool, error) {
	query := `
		UPDATE match_games SET status = $1, winner_user_id = $2, reported_at = $3
		WHERE id = $4 AND status = $5`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.GameStatusWaitingConfirmation, winnerID, reportedAt, id, models.GameStatusInProgress)
	return applied(result, err)
}

func (r *postgresMatchGameRepository) Confirm(ctx context.Context, exec SQLExecutor, id uuid.UUID, confirmedAt time.Time) (bool, error) {
	query := `UPDATE match_games SET status = $1, confirmed_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.GameStatusConfirmed, confirmedAt, id, models.GameStatusWaitingConfirmation)
	return applied(result, err)
}
