package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SyncType discriminates sync log entries by workflow.
type SyncType string

const SyncTypeRequalify SyncType = "requalify"

// SyncStatus is the terminal status of a logged run.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncScope identifies an owner and, optionally, one of its sub-accounts. A nil AccountID is
// its own scope, not a wildcard.
type SyncScope struct {
	UserAccountID string  `json:"userAccountId"`
	AccountID     *string `json:"accountId,omitempty"`
}

// Key renders the scope as a stable string for locks and cache keys.
func (s SyncScope) Key() string {
	if s.AccountID == nil {
		return s.UserAccountID + ":-"
	}
	return s.UserAccountID + ":" + *s.AccountID
}

// SyncLogEntry is one append-only audit record of a workflow invocation.
type SyncLogEntry struct {
	ID            string         `db:"id" json:"id"`
	UserAccountID string         `db:"user_account_id" json:"user_account_id"`
	AccountID     *string        `db:"account_id" json:"account_id,omitempty"`
	SyncType      SyncType       `db:"sync_type" json:"sync_type"`
	Status        SyncStatus     `db:"status" json:"status"`
	Response      types.JSONText `db:"response" json:"response"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// SyncFailure is the response payload stored for failed runs.
type SyncFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	DryRun  bool   `json:"dryRun"`
}
