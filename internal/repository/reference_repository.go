package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

var referenceQueries = map[models.ReferenceKind]string{
	models.ReferenceAccount:   `SELECT id, username AS label FROM user_accounts WHERE id = ANY($1)`,
	models.ReferenceDirection: `SELECT id, name AS label FROM account_directions WHERE id = ANY($1)`,
}

// ReferenceRepository looks up the labels of entities referenced by leads.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FetchByIDs returns the entities of the given kind whose ids are in the set. Unknown ids are
// simply absent from the result.
func (r *ReferenceRepository) FetchByIDs(ctx context.Context, kind models.ReferenceKind, ids []string) ([]models.ReferenceEntity, error) {
	query, ok := referenceQueries[kind]
	if !ok {
		return nil, fmt.Errorf("fetch references: unknown kind %q", kind)
	}
	entities := []models.ReferenceEntity{}
	if len(ids) == 0 {
		return entities, nil
	}
	if err := r.db.SelectContext(ctx, &entities, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("fetch %s references: %w", kind, err)
	}
	return entities, nil
}

// ListAccounts returns every owner account ordered by label.
func (r *ReferenceRepository) ListAccounts(ctx context.Context) ([]models.ReferenceEntity, error) {
	accounts := []models.ReferenceEntity{}
	const query = `SELECT id, username AS label FROM user_accounts ORDER BY username ASC`
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("list user accounts: %w", err)
	}
	return accounts, nil
}
