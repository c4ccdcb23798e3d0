package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

// SyncLogRepository persists the append-only CRM sync audit trail.
type SyncLogRepository struct {
	db *sqlx.DB
}

// NewSyncLogRepository constructs a SyncLogRepository.
func NewSyncLogRepository(db *sqlx.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Create appends an entry, filling in the id and timestamp when unset. Re-inserting an
// existing id is a no-op so retries are safe.
func (r *SyncLogRepository) Create(ctx context.Context, entry *models.SyncLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.Response) == 0 {
		entry.Response = []byte("{}")
	}
	const query = `INSERT INTO crm_sync_log (id, user_account_id, account_id, sync_type, status, response, created_at)
        VALUES (:id, :user_account_id, :account_id, :sync_type, :status, :response, :created_at)
        ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create sync log entry: %w", err)
	}
	return nil
}

// Latest returns the newest entry of the given type for exactly this scope, or nil.
func (r *SyncLogRepository) Latest(ctx context.Context, scope models.SyncScope, syncType models.SyncType) (*models.SyncLogEntry, error) {
	args := []interface{}{scope.UserAccountID, syncType}
	accountClause := "account_id IS NULL"
	if scope.AccountID != nil {
		args = append(args, *scope.AccountID)
		accountClause = "account_id = $3"
	}
	query := fmt.Sprintf(`SELECT id, user_account_id, account_id, sync_type, status, response, created_at
        FROM crm_sync_log WHERE user_account_id = $1 AND sync_type = $2 AND %s
        ORDER BY created_at DESC LIMIT 1`, accountClause)

	var entry models.SyncLogEntry
	if err := r.db.GetContext(ctx, &entry, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest sync log entry: %w", err)
	}
	return &entry, nil
}
