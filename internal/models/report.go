package models

import (
	"fmt"
	"time"
)

// ReportPeriod selects how far back the lead report looks.
type ReportPeriod string

const (
	PeriodToday      ReportPeriod = "today"
	PeriodLast7Days  ReportPeriod = "7d"
	PeriodLast30Days ReportPeriod = "30d"
	PeriodAll        ReportPeriod = "all"
)

// DefaultReportPeriod is used when the caller does not pick one.
const DefaultReportPeriod = PeriodLast7Days

// ParseReportPeriod validates a raw period value; empty input yields the default.
func ParseReportPeriod(raw string) (ReportPeriod, error) {
	switch p := ReportPeriod(raw); p {
	case "":
		return DefaultReportPeriod, nil
	case PeriodToday, PeriodLast7Days, PeriodLast30Days, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported period %q", raw)
	}
}

// ReportFilter scopes the lead report.
type ReportFilter struct {
	Period        ReportPeriod `validate:"oneof=today 7d 30d all"`
	UserAccountID *string      `validate:"omitempty,min=1"`
	Page          int          `validate:"min=1"`
	PageSize      int          `validate:"min=1"`
}

// LowerBound returns the inclusive lower creation bound for the period, measured from the
// start of the current day in loc. PeriodAll has no bound.
func (f ReportFilter) LowerBound(now time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var bound time.Time
	switch f.Period {
	case PeriodToday:
		bound = startOfDay
	case PeriodLast30Days:
		bound = startOfDay.AddDate(0, 0, -30)
	case PeriodAll:
		return nil
	default:
		bound = startOfDay.AddDate(0, 0, -7)
	}
	return &bound
}

// Offset returns the number of rows skipped before the current page.
func (f ReportFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// ReportStats summarises the whole filter scope, not just the current page.
type ReportStats struct {
	Total           int   `json:"total"`
	AverageCPLCents int64 `json:"averageCplCents"`
	TotalSpendCents int64 `json:"totalSpendCents"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes TotalPages as ceil(total/pageSize).
func NewPagination(page, pageSize, total int) *Pagination {
	p := &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	if pageSize > 0 {
		p.TotalPages = (total + pageSize - 1) / pageSize
	}
	return p
}
