package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

// CRMIntegrationRepository reads per-scope CRM connections.
type CRMIntegrationRepository struct {
	db *sqlx.DB
}

// NewCRMIntegrationRepository constructs a CRMIntegrationRepository.
func NewCRMIntegrationRepository(db *sqlx.DB) *CRMIntegrationRepository {
	return &CRMIntegrationRepository{db: db}
}

// FindByScope returns the integration configured for exactly this scope, or nil when none.
func (r *CRMIntegrationRepository) FindByScope(ctx context.Context, scope models.SyncScope) (*models.CRMIntegration, error) {
	args := []interface{}{scope.UserAccountID}
	accountClause := "account_id IS NULL"
	if scope.AccountID != nil {
		args = append(args, *scope.AccountID)
		accountClause = "account_id = $2"
	}
	query := `SELECT user_account_id, account_id, subdomain, access_token, token_expires_at, qualification_field_id, qualified_values
        FROM crm_integrations WHERE user_account_id = $1 AND ` + accountClause + ` LIMIT 1`

	var integration models.CRMIntegration
	if err := r.db.GetContext(ctx, &integration, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find crm integration: %w", err)
	}
	return &integration, nil
}
