package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportPeriod(t *testing.T) {
	p, err := ParseReportPeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodLast7Days, p)

	p, err = ParseReportPeriod("30d")
	require.NoError(t, err)
	assert.Equal(t, PeriodLast30Days, p)

	_, err = ParseReportPeriod("90d")
	assert.Error(t, err)
}

func TestReportFilterLowerBound(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	// 2024-03-10 22:30 UTC is already 2024-03-11 01:30 in UTC+3.
	now := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)

	today := ReportFilter{Period: PeriodToday}.LowerBound(now, loc)
	require.NotNil(t, today)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, loc), *today)

	week := ReportFilter{Period: PeriodLast7Days}.LowerBound(now, loc)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, loc), *week)

	month := ReportFilter{Period: PeriodLast30Days}.LowerBound(now, loc)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, loc), *month)

	assert.Nil(t, ReportFilter{Period: PeriodAll}.LowerBound(now, loc))
}

func TestReportFilterOffset(t *testing.T) {
	assert.Equal(t, 0, ReportFilter{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 20, ReportFilter{Page: 2, PageSize: 20}.Offset())
	assert.Equal(t, 0, ReportFilter{Page: 0, PageSize: 20}.Offset())
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, 2, NewPagination(1, 20, 25).TotalPages)
	assert.Equal(t, 1, NewPagination(1, 20, 20).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 20, 0).TotalPages)
}

func TestSyncScopeKey(t *testing.T) {
	sub := "acc-1"
	assert.Equal(t, "owner:-", SyncScope{UserAccountID: "owner"}.Key())
	assert.Equal(t, "owner:acc-1", SyncScope{UserAccountID: "owner", AccountID: &sub}.Key())
}

func TestCRMIntegrationState(t *testing.T) {
	now := time.Now()
	token := "t"
	expired := now.Add(-time.Minute)
	field := int64(10)

	var missing *CRMIntegration
	assert.False(t, missing.Connected(now))
	assert.False(t, missing.Configured())

	integration := &CRMIntegration{Subdomain: "acme", AccessToken: &token}
	assert.True(t, integration.Connected(now))
	assert.False(t, integration.Configured())

	integration.TokenExpiresAt = &expired
	assert.False(t, integration.Connected(now))

	integration.QualificationFieldID = &field
	integration.QualifiedValues = []string{"Qualified"}
	assert.True(t, integration.Configured())
}

func TestJWTClaimsCanAccess(t *testing.T) {
	admin := &JWTClaims{Role: RoleAdmin}
	owner := &JWTClaims{Role: RoleOwner, UserAccountID: "u1"}
	assert.True(t, admin.CanAccess("anything"))
	assert.True(t, owner.CanAccess("u1"))
	assert.False(t, owner.CanAccess("u2"))
	assert.False(t, (*JWTClaims)(nil).CanAccess("u1"))
}
