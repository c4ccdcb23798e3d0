package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

const leadColumns = "id, name, phone, user_account_id, account_id, direction_id, creative_id, crm_lead_id, is_qualified, qualification_checked_at, created_at"

// LeadRepository reads leads for reporting and updates their qualification state.
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository constructs a LeadRepository.
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// leadWhere is the single predicate builder behind List and Count.
func leadWhere(criteria models.LeadCriteria) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if criteria.CreatedFrom != nil {
		args = append(args, *criteria.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if criteria.UserAccountID != nil {
		args = append(args, *criteria.UserAccountID)
		conditions = append(conditions, fmt.Sprintf("user_account_id = $%d", len(args)))
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of leads, newest first. Leads created at the same instant keep
// insertion order.
func (r *LeadRepository) List(ctx context.Context, criteria models.LeadCriteria, limit, offset int) ([]models.Lead, error) {
	where, args := leadWhere(criteria)
	query := fmt.Sprintf("SELECT %s FROM leads %s ORDER BY created_at DESC, seq ASC LIMIT %d OFFSET %d", leadColumns, where, limit, offset)

	leads := []models.Lead{}
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// Count returns the number of leads matching the criteria.
func (r *LeadRepository) Count(ctx context.Context, criteria models.LeadCriteria) (int, error) {
	where, args := leadWhere(criteria)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM leads "+where, args...); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return total, nil
}

// ListForRequalify returns the next keyset page of CRM-synced leads in an exact scope.
func (r *LeadRepository) ListForRequalify(ctx context.Context, filter models.RequalifyLeadFilter) ([]models.Lead, error) {
	args := []interface{}{filter.Scope.UserAccountID}
	conditions := []string{"user_account_id = $1", "crm_lead_id IS NOT NULL"}
	if filter.Scope.AccountID == nil {
		conditions = append(conditions, "account_id IS NULL")
	} else {
		args = append(args, *filter.Scope.AccountID)
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.AfterID != "" {
		args = append(args, filter.AfterID)
		conditions = append(conditions, fmt.Sprintf("id > $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf("SELECT %s FROM leads WHERE %s ORDER BY id ASC LIMIT %d", leadColumns, strings.Join(conditions, " AND "), limit)
	leads := []models.Lead{}
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("list leads for requalify: %w", err)
	}
	return leads, nil
}

// UpdateQualification persists a new qualification flag for one lead.
func (r *LeadRepository) UpdateQualification(ctx context.Context, leadID string, qualified bool, checkedAt time.Time) error {
	const query = `UPDATE leads SET is_qualified = $1, qualification_checked_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, qualified, checkedAt, leadID)
	if err != nil {
		return fmt.Errorf("update lead qualification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead qualification: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update lead qualification %s: %w", leadID, sql.ErrNoRows)
	}
	return nil
}
