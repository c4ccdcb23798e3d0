package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
	"github.com/noah-isme/lead-insights-api/pkg/export"
)

func TestExportServiceCSV(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	leads := leadsFixture(2, testOwnerID, now)
	leads[0].IsQualified = true
	fx := newReportFixture(t, nil, leads...)
	svc := NewExportService(fx.service, export.NewCSVExporter(), export.NewPDFExporter(), time.UTC)
	svc.now = func() time.Time { return now }

	file, err := svc.ExportLeadReport(context.Background(), models.ReportFilter{}, adminClaims(), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "lead-report-7d-20240310-120000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(file.Body), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Created,Name,Phone,Account,Direction,CRM lead,Qualified", lines[0])
	assert.Equal(t, "2024-03-10 12:00,Lead 0,,owner,-,1000,yes", lines[1])
}

func TestExportServicePDF(t *testing.T) {
	fx := newReportFixture(t, nil, leadsFixture(3, testOwnerID, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))...)
	svc := NewExportService(fx.service, export.NewCSVExporter(), export.NewPDFExporter(), time.UTC)

	file, err := svc.ExportLeadReport(context.Background(), models.ReportFilter{Period: models.PeriodAll}, adminClaims(), ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	fx := newReportFixture(t, nil)
	svc := NewExportService(fx.service, export.NewCSVExporter(), export.NewPDFExporter(), time.UTC)

	_, err := svc.ExportLeadReport(context.Background(), models.ReportFilter{}, adminClaims(), ExportFormat("xlsx"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", formatCents(0))
	assert.Equal(t, "12.05", formatCents(1205))
	assert.Equal(t, "-0.50", formatCents(-50))
}
