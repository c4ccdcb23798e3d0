package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lead-insights-api/internal/dto"
	"github.com/noah-isme/lead-insights-api/internal/models"
	"github.com/noah-isme/lead-insights-api/internal/service"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
	"github.com/noah-isme/lead-insights-api/pkg/response"
)

type requalifyService interface {
	Requalify(ctx context.Context, req models.RequalifyRequest, claims *models.JWTClaims) (*service.RequalifyOutcome, error)
	Status(ctx context.Context, scope models.SyncScope, claims *models.JWTClaims) (*models.SyncLogEntry, error)
}

// RequalifyHandler exposes the CRM requalification endpoints.
type RequalifyHandler struct {
	service requalifyService
}

// NewRequalifyHandler constructs a RequalifyHandler.
func NewRequalifyHandler(svc requalifyService) *RequalifyHandler {
	return &RequalifyHandler{service: svc}
}

// Requalify godoc
// @Summary Requalify synced leads against the CRM
// @Tags CRM
// @Accept json
// @Produce json
// @Param payload body models.RequalifyRequest true "Requalify payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 424 {object} response.Envelope
// @Security BearerAuth
// @Router /crm/requalify [post]
func (h *RequalifyHandler) Requalify(c *gin.Context) {
	var req models.RequalifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	outcome, err := h.service.Requalify(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RequalifyResponse{Success: true, Result: outcome.Result, Message: outcome.Message}, nil)
}

// Status godoc
// @Summary Latest requalification run of a scope
// @Tags CRM
// @Produce json
// @Param userAccountId query string true "Owner account"
// @Param accountId query string false "Sub-account; omitted means the owner-level scope"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /crm/requalify/status [get]
func (h *RequalifyHandler) Status(c *gin.Context) {
	scope := models.SyncScope{UserAccountID: c.Query("userAccountId"), AccountID: optionalQuery(c, "accountId")}
	entry, err := h.service.Status(c.Request.Context(), scope, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
