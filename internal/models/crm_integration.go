package models

import (
	"time"

	"github.com/lib/pq"
)

// CRMIntegration holds the CRM connection and qualification mapping of a scope.
type CRMIntegration struct {
	UserAccountID        string         `db:"user_account_id"`
	AccountID            *string        `db:"account_id"`
	Subdomain            string         `db:"subdomain"`
	AccessToken          *string        `db:"access_token"`
	TokenExpiresAt       *time.Time     `db:"token_expires_at"`
	QualificationFieldID *int64         `db:"qualification_field_id"`
	QualifiedValues      pq.StringArray `db:"qualified_values"`
}

// Connected reports whether a usable access token exists at now.
func (i *CRMIntegration) Connected(now time.Time) bool {
	if i == nil || i.AccessToken == nil || *i.AccessToken == "" || i.Subdomain == "" {
		return false
	}
	return i.TokenExpiresAt == nil || i.TokenExpiresAt.After(now)
}

// Configured reports whether the qualification field mapping has been set up.
func (i *CRMIntegration) Configured() bool {
	return i != nil && i.QualificationFieldID != nil && len(i.QualifiedValues) > 0
}
