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

type leadReportService interface {
	Report(ctx context.Context, filter models.ReportFilter, claims *models.JWTClaims) (*service.LeadReport, error)
}

type leadReportExporter interface {
	ExportLeadReport(ctx context.Context, filter models.ReportFilter, claims *models.JWTClaims, format service.ExportFormat) (*service.ExportFile, error)
}

// LeadReportHandler serves the lead report and its downloads.
type LeadReportHandler struct {
	reports leadReportService
	exports leadReportExporter
}

// NewLeadReportHandler constructs a LeadReportHandler.
func NewLeadReportHandler(reports leadReportService, exports leadReportExporter) *LeadReportHandler {
	return &LeadReportHandler{reports: reports, exports: exports}
}

// Report godoc
// @Summary Lead report
// @Description Paginated leads with owner and direction labels plus statistics over the whole filter.
// @Tags Leads
// @Produce json
// @Param period query string false "today, 7d, 30d or all" default(7d)
// @Param userAccountId query string false "Owner account"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /leads/report [get]
func (h *LeadReportHandler) Report(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reports.Report(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.LeadReportResponse{
		Rows:         report.Rows,
		Stats:        report.Stats,
		UserAccounts: report.UserAccounts,
	}, report.Pagination)
}

// Export godoc
// @Summary Download the lead report
// @Tags Leads
// @Produce text/csv
// @Produce application/pdf
// @Param period query string false "today, 7d, 30d or all" default(7d)
// @Param userAccountId query string false "Owner account"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /leads/report/export [get]
func (h *LeadReportHandler) Export(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	file, err := h.exports.ExportLeadReport(c.Request.Context(), filter, claimsFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func reportFilterFromQuery(c *gin.Context) (models.ReportFilter, error) {
	period, err := models.ParseReportPeriod(c.Query("period"))
	if err != nil {
		return models.ReportFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "period must be one of today, 7d, 30d, all")
	}
	page, err := positiveIntQuery(c, "page")
	if err != nil {
		return models.ReportFilter{}, err
	}
	limit, err := positiveIntQuery(c, "limit")
	if err != nil {
		return models.ReportFilter{}, err
	}
	return models.ReportFilter{
		Period:        period,
		UserAccountID: optionalQuery(c, "userAccountId"),
		Page:          page,
		PageSize:      limit,
	}, nil
}
