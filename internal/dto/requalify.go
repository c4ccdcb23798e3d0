package dto

import "github.com/noah-isme/lead-insights-api/internal/models"

// RequalifyResponse is returned by POST /crm/requalify.
type RequalifyResponse struct {
	Success bool                    `json:"success"`
	Result  *models.RequalifyResult `json:"result"`
	Message string                  `json:"message"`
}
