package models

import "time"

// DateLayout is the calendar-date format accepted by the requalify endpoints.
const DateLayout = "2006-01-02"

// RequalifyRequest triggers a requalification run.
type RequalifyRequest struct {
	UserAccountID string  `json:"userAccountId" validate:"required,uuid"`
	AccountID     *string `json:"accountId,omitempty" validate:"omitempty,uuid"`
	BatchSize     *int    `json:"batchSize,omitempty" validate:"omitempty,min=1"`
	DryRun        bool    `json:"dryRun"`
	StartDate     *string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Scope returns the sync scope addressed by the request.
func (r RequalifyRequest) Scope() SyncScope {
	return SyncScope{UserAccountID: r.UserAccountID, AccountID: r.AccountID}
}

// RequalifyOptions are the parsed, bounded run parameters.
type RequalifyOptions struct {
	BatchSize int
	DryRun    bool
	// CreatedFrom is inclusive, CreatedBefore exclusive (the day after the end date).
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
}

// LeadError records a lead that could not be requalified.
type LeadError struct {
	LeadID string `json:"leadId"`
	Error  string `json:"error"`
}

// RequalifyResult is the outcome of one run. Counts are identical for dry and applied runs
// over the same data.
type RequalifyResult struct {
	Examined  int         `json:"examined"`
	Changed   int         `json:"changed"`
	Unchanged int         `json:"unchanged"`
	Errors    []LeadError `json:"errors"`
	DryRun    bool        `json:"dryRun"`
}

// AddError appends a per-lead failure.
func (r *RequalifyResult) AddError(leadID string, err error) {
	r.Errors = append(r.Errors, LeadError{LeadID: leadID, Error: err.Error()})
}

// RequalifyLeadFilter selects the leads walked by the workflow, one keyset page at a time.
type RequalifyLeadFilter struct {
	Scope         SyncScope
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	AfterID       string
	Limit         int
}
