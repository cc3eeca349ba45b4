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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentStatusConflict = errors.New("tournament is not in the expected status")
	ErrTournamentTitleConflict  = errors.New("tournament title conflict for this admin")
)

type ListTournamentsFilter struct {
	AdminID *uuid.UUID
	Status  *models.TournamentStatus
	// VisibleTo restricts the list to public tournaments and those the user is enrolled in.
	VisibleTo *uuid.UUID
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	// GetForUpdate reads the tournament and holds its row lock until exec's transaction ends.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error)
	// UpdateStatus moves the tournament from -> to, failing with ErrTournamentStatusConflict
	// when the row is not currently in from.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error
	StartGroups(ctx context.Context, exec SQLExecutor, id uuid.UUID, totalRounds int, startedAt time.Time) error
	// AdvanceRound increments current_round only if it still equals fromRound during the group phase.
	AdvanceRound(ctx context.Context, exec SQLExecutor, id uuid.UUID, fromRound int) (bool, error)
	StartKnockout(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error)
	Finish(ctx context.Context, exec SQLExecutor, id uuid.UUID, championID uuid.UUID, finishedAt time.Time) (bool, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, title, description, admin_id, is_public, status, slots_limit, total_rounds, current_round,
	start_date, end_date, started_at, finished_at, champion_id, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.StatusDraft
	}
	query := `
		INSERT INTO tournaments (
			id, title, description, admin_id, is_public, status, slots_limit, total_rounds,
			current_round, start_date, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.ID, t.Title, t.Description, t.AdminID, t.IsPublic, t.Status, t.SlotsLimit, t.TotalRounds,
		t.StartDate, t.EndDate,
	).Scan(&t.CreatedAt)
	if constraint, ok := uniqueViolation(err); ok && constraint == "tournaments_admin_id_title_key" {
		return ErrTournamentTitleConflict
	}
	return err
}

func (r *postgresTournamentRepository) scanTournament(row rowScanner) (*models.Tournament, error) {
	t := &models.Tournament{}
	var championID uuid.NullUUID
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.AdminID, &t.IsPublic, &t.Status, &t.SlotsLimit,
		&t.TotalRounds, &t.CurrentRound, &t.StartDate, &t.EndDate, &t.StartedAt, &t.FinishedAt,
		&championID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if championID.Valid {
		t.ChampionID = &championID.UUID
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return r.scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments t WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.AdminID != nil {
		query += fmt.Sprintf(" AND admin_id = $%d", argID)
		args = append(args, *filter.AdminID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.VisibleTo != nil {
		query += fmt.Sprintf(` AND (is_public OR EXISTS (
			SELECT 1 FROM enrollments e WHERE e.tournament_id = t.id AND e.user_id = $%d))`, argID)
		args = append(args, *filter.VisibleTo)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := r.scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

func (r *postgresTournamentRepository) StartGroups(ctx context.Context, exec SQLExecutor, id uuid.UUID, totalRounds int, startedAt time.Time) error {
	query := `
		UPDATE tournaments
		SET status = $1, current_round = 1, total_rounds = $2, started_at = $3
		WHERE id = $4 AND status = $5`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.StatusGroups, totalRounds, startedAt, id, models.StatusOpen)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

func (r *postgresTournamentRepository) AdvanceRound(ctx context.Context, exec SQLExecutor, id uuid.UUID, fromRound int) (bool, error) {
	query := `
		UPDATE tournaments SET current_round = current_round + 1
		WHERE id = $1 AND current_round = $2 AND status = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id, fromRound, models.StatusGroups)
	return applied(result, err)
}

func (r *postgresTournamentRepository) StartKnockout(ctx context.Context, exec SQLExecutor, id uuid.UUID) (bool, error) {
	query := `UPDATE tournaments SET status = $1, current_round = 1 WHERE id = $2 AND status = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.StatusKnockout, id, models.StatusGroups)
	return applied(result, err)
}

func (r *postgresTournamentRepository) Finish(ctx context.Context, exec SQLExecutor, id uuid.UUID, championID uuid.UUID, finishedAt time.Time) (bool, error) {
	// current_round = 0 blocks any further automatic round generation.
	query := `
		UPDATE tournaments
		SET status = $1, finished_at = $2, current_round = 0, champion_id = $3
		WHERE id = $4 AND status = $5`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.StatusFinished, finishedAt, championID, id, models.StatusKnockout)
	return applied(result, err)
}

func applied(result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}
