package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
)

type MatchFilter struct {
	TournamentID  *uuid.UUID
	Round         *int
	Stage         *models.MatchStage
	Status        *models.MatchStatus
	ParticipantID *uuid.UUID
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error)
	// List returns matches in creation order within each round.
	List(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error)
	Count(ctx context.Context, exec SQLExecutor, filter MatchFilter) (int, error)
	// MarkDisputed moves a SCHEDULED match to DISPUTED; false if it was not SCHEDULED.
	MarkDisputed(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error)
	// IncrementScore adds one game win to winnerID's side, capped at models.WinningScore.
	IncrementScore(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID) (*models.Match, error)
	// Finish marks a DISPUTED match FINISHED with winnerID and reports whether it did.
	Finish(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID) (bool, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round, stage, a_side_id, b_side_id, score_a, score_b, status, winner_id, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	query := `
		INSERT INTO matches
			(id, tournament_id, round, stage, a_side_id, b_side_id, score_a, score_b, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.ID,
		match.TournamentID,
		match.Round,
		match.Stage,
		match.ASideID,
		match.BSideID,
		match.ScoreA,
		match.ScoreB,
		match.Status,
	).Scan(&match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var winnerID uuid.NullUUID
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Round,
		&match.Stage,
		&match.ASideID,
		&match.BSideID,
		&match.ScoreA,
		&match.ScoreB,
		&match.Status,
		&winnerID,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	if winnerID.Valid {
		match.WinnerID = &winnerID.UUID
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) buildWhere(filter MatchFilter) (string, []interface{}) {
	var where strings.Builder
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	placeholderIndex := 1

	add := func(clause string, arg interface{}) {
		where.WriteString(" AND ")
		where.WriteString(strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(placeholderIndex)))
		args = append(args, arg)
		placeholderIndex++
	}

	if filter.TournamentID != nil {
		add("tournament_id = ?", *filter.TournamentID)
	}
	if filter.Round != nil {
		add("round = ?", *filter.Round)
	}
	if filter.Stage != nil {
		add("stage = ?", *filter.Stage)
	}
	if filter.Status != nil {
		add("status = ?", *filter.Status)
	}
	if filter.ParticipantID != nil {
		add("(a_side_id = ? OR b_side_id = ?)", *filter.ParticipantID)
	}
	return where.String(), args
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor, filter MatchFilter) ([]*models.Match, error) {
	where, args := r.buildWhere(filter)
	query := `SELECT ` + matchColumns + ` FROM matches` + where + ` ORDER BY round ASC, seq ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Count(ctx context.Context, exec SQLExecutor, filter MatchFilter) (int, error) {
	where, args := r.buildWhere(filter)
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) MarkDisputed(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error) {
	query := `UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.MatchStatusDisputed, id, models.MatchStatusScheduled)
	return applied(result, err)
}

func (r *postgresMatchRepository) IncrementScore(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID) (*models.Match, error) {
	query := `
		UPDATE matches SET
			score_a = CASE WHEN a_side_id = $2 THEN LEAST(score_a + 1, $3) ELSE score_a END,
			score_b = CASE WHEN b_side_id = $2 THEN LEAST(score_b + 1, $3) ELSE score_b END
		WHERE id = $1
		RETURNING ` + matchColumns
	return r.scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id, winnerID, models.WinningScore))
}

func (r *postgresMatchRepository) Finish(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID uuid.UUID) (bool, error) {
	query := `UPDATE matches SET status = $1, winner_id = $2 WHERE id = $3 AND status = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.MatchStatusFinished, winnerID, id, models.MatchStatusDisputed)
	return applied(result, err)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		// "23503": foreign_key_violation
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		}
	}
	return err
}
