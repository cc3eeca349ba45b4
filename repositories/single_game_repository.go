package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

type SingleGameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.SingleGame) error
	// List returns lobbies newest first.
	List(ctx context.Context, exec SQLExecutor, limit, offset int) ([]*models.SingleGame, error)
}

type postgresSingleGameRepository struct {
	db *sql.DB
}

func NewPostgresSingleGameRepository(db *sql.DB) SingleGameRepository {
	return &postgresSingleGameRepository{db: db}
}

func (r *postgresSingleGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSingleGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.SingleGame) error {
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	if game.Status == "" {
		game.Status = models.SingleGameStatusOpen
	}
	query := `
		INSERT INTO single_games (id, title, description, code, status, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		game.ID, game.Title, game.Description, game.Code, game.Status, game.CreatorID,
	).Scan(&game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create single game: %w", err)
	}
	return nil
}

func (r *postgresSingleGameRepository) List(ctx context.Context, exec SQLExecutor, limit, offset int) ([]*models.SingleGame, error) {
	query := `
		SELECT id, title, description, code, status, creator_id, created_at
		FROM single_games
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.SingleGame, 0)
	for rows.Next() {
		g := &models.SingleGame{}
		err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.Code, &g.Status, &g.CreatorID, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan single game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
