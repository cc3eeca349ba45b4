package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ClaimRepository is an insert-if-absent slot per (tournament, key). Exactly one
// caller wins a key; the claim lives and dies with the caller's transaction.
type ClaimRepository interface {
	Claim(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, key string) (bool, error)
}

type postgresClaimRepository struct {
	db *sql.DB
}

func NewPostgresClaimRepository(db *sql.DB) ClaimRepository {
	return &postgresClaimRepository{db: db}
}

func (r *postgresClaimRepository) Claim(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, key string) (bool, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO advancement_claims (tournament_id, claim_key)
		VALUES ($1, $2)
		ON CONFLICT (tournament_id, claim_key) DO NOTHING`
	result, err := exec.ExecContext(ctx, query, tournamentID, key)
	if err != nil {
		return false, fmt.Errorf("failed to claim %q for tournament %s: %w", key, tournamentID, err)
	}
	return applied(result, nil)
}
