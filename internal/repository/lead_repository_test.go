package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var leadRowColumns = []string{"id", "name", "phone", "user_account_id", "account_id", "direction_id", "creative_id", "crm_lead_id", "is_qualified", "qualification_checked_at", "created_at"}

func TestLeadRepositoryListAndCountShareThePredicate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	from := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	owner := "owner-1"
	criteria := models.LeadCriteria{CreatedFrom: &from, UserAccountID: &owner}

	rows := sqlmock.NewRows(leadRowColumns).
		AddRow("lead-1", "Ann", nil, owner, nil, "dir-1", nil, int64(501), false, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + leadColumns + " FROM leads WHERE 1=1 AND created_at >= $1 AND user_account_id = $2 ORDER BY created_at DESC, seq ASC LIMIT 20 OFFSET 20")).
		WithArgs(from, owner).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leads WHERE 1=1 AND created_at >= $1 AND user_account_id = $2")).
		WithArgs(from, owner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	leads, err := repo.List(context.Background(), criteria, 20, 20)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "dir-1", *leads[0].DirectionID)
	assert.Nil(t, leads[0].AccountID)

	total, err := repo.Count(context.Background(), criteria)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryListWithoutFilters(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE 1=1 ORDER BY created_at DESC, seq ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(leadRowColumns))

	leads, err := repo.List(context.Background(), models.LeadCriteria{}, 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryListForRequalifyNullScope(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE user_account_id = $1 AND crm_lead_id IS NOT NULL AND account_id IS NULL AND created_at >= $2 AND created_at < $3 AND id > $4 ORDER BY id ASC LIMIT 10")).
		WithArgs("owner-1", from, before, "lead-9").
		WillReturnRows(sqlmock.NewRows(leadRowColumns))

	_, err := repo.ListForRequalify(context.Background(), models.RequalifyLeadFilter{
		Scope:         models.SyncScope{UserAccountID: "owner-1"},
		CreatedFrom:   &from,
		CreatedBefore: &before,
		AfterID:       "lead-9",
		Limit:         10,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryListForRequalifySubAccount(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	account := "acc-1"
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE user_account_id = $1 AND crm_lead_id IS NOT NULL AND account_id = $2 ORDER BY id ASC LIMIT 50")).
		WithArgs("owner-1", account).
		WillReturnRows(sqlmock.NewRows(leadRowColumns))

	_, err := repo.ListForRequalify(context.Background(), models.RequalifyLeadFilter{
		Scope: models.SyncScope{UserAccountID: "owner-1", AccountID: &account},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryUpdateQualification(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	checked := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE leads SET is_qualified = $1, qualification_checked_at = $2 WHERE id = $3")).
		WithArgs(true, checked, "lead-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE leads").
		WithArgs(false, checked, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateQualification(context.Background(), "lead-1", true, checked))
	err := repo.UpdateQualification(context.Background(), "missing", false, checked)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
