package models

import "time"

// Lead is a captured sales contact. Rows are owned by the ingestion pipeline; this service
// only mutates the qualification columns.
type Lead struct {
	ID                     string     `db:"id" json:"id"`
	Name                   string     `db:"name" json:"name"`
	Phone                  *string    `db:"phone" json:"phone"`
	UserAccountID          string     `db:"user_account_id" json:"user_account_id"`
	AccountID              *string    `db:"account_id" json:"account_id,omitempty"`
	DirectionID            *string    `db:"direction_id" json:"direction_id"`
	CreativeID             *string    `db:"creative_id" json:"creative_id"`
	CRMLeadID              *int64     `db:"crm_lead_id" json:"crm_lead_id,omitempty"`
	IsQualified            bool       `db:"is_qualified" json:"is_qualified"`
	QualificationCheckedAt *time.Time `db:"qualification_checked_at" json:"qualification_checked_at,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
}

// LeadReportRow is a lead joined with the labels of the entities it references.
type LeadReportRow struct {
	Lead
	UserAccountLabel string  `json:"user_account_label"`
	DirectionLabel   *string `json:"direction_label"`
	// CostCents stays nil until a cost model attributes spend to individual leads.
	CostCents *int64 `json:"cost_cents"`
}

// LeadCriteria is the predicate shared by the report page query and its count passes.
type LeadCriteria struct {
	CreatedFrom   *time.Time
	UserAccountID *string
}
