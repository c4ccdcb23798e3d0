package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

type leadReader interface {
	List(ctx context.Context, criteria models.LeadCriteria, limit, offset int) ([]models.Lead, error)
	Count(ctx context.Context, criteria models.LeadCriteria) (int, error)
}

// LeadQueryEngine fetches a page of leads with its total and stamps reference labels onto
// each row.
type LeadQueryEngine struct {
	leads    leadReader
	resolver *ReferenceResolver
	metrics  *MetricsService
	location *time.Location
	now      func() time.Time
}

// NewLeadQueryEngine constructs a LeadQueryEngine. Period bounds are computed in location.
func NewLeadQueryEngine(leads leadReader, resolver *ReferenceResolver, metrics *MetricsService, location *time.Location) *LeadQueryEngine {
	if location == nil {
		location = time.Local
	}
	return &LeadQueryEngine{leads: leads, resolver: resolver, metrics: metrics, location: location, now: time.Now}
}

// Criteria translates a report filter into the storage predicate.
func (e *LeadQueryEngine) Criteria(filter models.ReportFilter) models.LeadCriteria {
	return models.LeadCriteria{
		CreatedFrom:   filter.LowerBound(e.now(), e.location),
		UserAccountID: filter.UserAccountID,
	}
}

// Query returns the requested page of enriched rows and the number of leads matching the
// filter across all pages.
func (e *LeadQueryEngine) Query(ctx context.Context, filter models.ReportFilter) ([]models.LeadReportRow, int, error) {
	return e.Page(ctx, e.Criteria(filter), filter.PageSize, filter.Offset())
}

// Page runs the page fetch and the count pass concurrently over the same criteria.
func (e *LeadQueryEngine) Page(ctx context.Context, criteria models.LeadCriteria, limit, offset int) ([]models.LeadReportRow, int, error) {
	var (
		leads []models.Lead
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		leads, err = e.leads.List(gctx, criteria, limit, offset)
		e.metrics.ObserveDBQuery("leads_page", time.Since(start))
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		total, err = e.leads.Count(gctx, criteria)
		e.metrics.ObserveDBQuery("leads_count", time.Since(start))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	rows, err := e.enrich(ctx, leads)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (e *LeadQueryEngine) enrich(ctx context.Context, leads []models.Lead) ([]models.LeadReportRow, error) {
	rows := make([]models.LeadReportRow, 0, len(leads))
	if len(leads) == 0 {
		return rows, nil
	}

	accountIDs := make([]string, 0, len(leads))
	directionIDs := make([]string, 0, len(leads))
	for _, lead := range leads {
		accountIDs = append(accountIDs, lead.UserAccountID)
		if lead.DirectionID != nil {
			directionIDs = append(directionIDs, *lead.DirectionID)
		}
	}

	accounts, directions, err := e.resolver.ResolveAll(ctx, accountIDs, directionIDs)
	if err != nil {
		return nil, err
	}

	for _, lead := range leads {
		row := models.LeadReportRow{Lead: lead, UserAccountLabel: models.UnknownAccountLabel}
		if label, ok := accounts[lead.UserAccountID]; ok {
			row.UserAccountLabel = label
		}
		if lead.DirectionID != nil {
			if label, ok := directions[*lead.DirectionID]; ok {
				row.DirectionLabel = &label
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
