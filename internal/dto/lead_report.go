package dto

import "github.com/noah-isme/lead-insights-api/internal/models"

// LeadReportResponse is the data section of GET /leads/report.
type LeadReportResponse struct {
	Rows         []models.LeadReportRow   `json:"rows"`
	Stats        models.ReportStats       `json:"stats"`
	UserAccounts []models.ReferenceEntity `json:"userAccounts"`
}
