package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
	"github.com/noah-isme/lead-insights-api/pkg/export"
)

// ExportFormat names a rendered report format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

type leadReporter interface {
	Report(ctx context.Context, filter models.ReportFilter, claims *models.JWTClaims) (*LeadReport, error)
}

// ExportFile is a rendered report ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders lead report pages into downloadable files.
type ExportService struct {
	reports   leadReporter
	renderers map[ExportFormat]datasetRenderer
	location  *time.Location
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(reports leadReporter, csv, pdf datasetRenderer, location *time.Location) *ExportService {
	if location == nil {
		location = time.Local
	}
	return &ExportService{
		reports:   reports,
		renderers: map[ExportFormat]datasetRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		location:  location,
		now:       time.Now,
	}
}

// ExportLeadReport renders the report page described by filter.
func (s *ExportService) ExportLeadReport(ctx context.Context, filter models.ReportFilter, claims *models.JWTClaims, format ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok || renderer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	report, err := s.reports.Report(ctx, filter, claims)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(leadReportDataset(report, s.location))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render lead report")
	}
	filename := fmt.Sprintf("lead-report-%s-%s.%s", report.Filter.Period, s.now().In(s.location).Format("20060102-150405"), renderer.Extension())
	return &ExportFile{Filename: filename, ContentType: renderer.ContentType(), Body: body}, nil
}

func leadReportDataset(report *LeadReport, location *time.Location) export.Dataset {
	rows := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, []string{
			row.CreatedAt.In(location).Format("2006-01-02 15:04"),
			row.Name,
			derefOr(row.Phone, ""),
			row.UserAccountLabel,
			derefOr(row.DirectionLabel, "-"),
			crmIDString(row.CRMLeadID),
			yesNo(row.IsQualified),
		})
	}

	summary := []string{
		fmt.Sprintf("Period: %s", report.Filter.Period),
		fmt.Sprintf("Total leads: %d", report.Stats.Total),
		fmt.Sprintf("Total spend: %s", formatCents(report.Stats.TotalSpendCents)),
		fmt.Sprintf("Average cost per lead: %s", formatCents(report.Stats.AverageCPLCents)),
	}
	if report.Pagination != nil {
		summary = append(summary, fmt.Sprintf("Page %d of %d", report.Pagination.Page, report.Pagination.TotalPages))
	}

	return export.Dataset{
		Title:   "Lead report",
		Summary: summary,
		Headers: []string{"Created", "Name", "Phone", "Account", "Direction", "CRM lead", "Qualified"},
		Rows:    rows,
	}
}

func derefOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}

func crmIDString(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
