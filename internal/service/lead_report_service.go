package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
)

const (
	userAccountsCacheKey = "reports:user_accounts"
	ownerLoadTimeout     = 10 * time.Second
)

type accountLister interface {
	ListAccounts(ctx context.Context) ([]models.ReferenceEntity, error)
}

// ReportServiceConfig bounds report paging and caching.
type ReportServiceConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	OwnerCacheTTL   time.Duration
}

// LeadReport is one page of the lead report with scope-wide statistics.
type LeadReport struct {
	Filter       models.ReportFilter
	Rows         []models.LeadReportRow
	Stats        models.ReportStats
	UserAccounts []models.ReferenceEntity
	Pagination   *models.Pagination
}

// LeadReportService assembles the lead report from the query engine, the stats aggregator
// and the owner account list.
type LeadReportService struct {
	query     *LeadQueryEngine
	stats     *StatsAggregator
	accounts  accountLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	owners    singleflight.Group
}

// NewLeadReportService constructs a LeadReportService.
func NewLeadReportService(query *LeadQueryEngine, stats *StatsAggregator, accounts accountLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *LeadReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &LeadReportService{query: query, stats: stats, accounts: accounts, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// Report builds the page described by filter on behalf of the caller.
func (s *LeadReportService) Report(ctx context.Context, filter models.ReportFilter, claims *models.JWTClaims) (*LeadReport, error) {
	filter, err := s.normalize(filter, claims)
	if err != nil {
		return nil, err
	}

	criteria := s.query.Criteria(filter)
	report := &LeadReport{Filter: filter}
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Rows, total, err = s.query.Page(gctx, criteria, filter.PageSize, filter.Offset())
		return err
	})
	g.Go(func() error {
		var err error
		report.Stats, err = s.stats.Summarize(gctx, criteria)
		return err
	})
	g.Go(func() error {
		var err error
		report.UserAccounts, err = s.userAccounts(gctx, claims)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build lead report", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to build lead report")
	}

	report.Pagination = models.NewPagination(filter.Page, filter.PageSize, total)
	return report, nil
}

func (s *LeadReportService) normalize(filter models.ReportFilter, claims *models.JWTClaims) (models.ReportFilter, error) {
	if claims == nil {
		return filter, appErrors.ErrUnauthorized
	}
	if filter.Period == "" {
		filter.Period = models.DefaultReportPeriod
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = s.cfg.DefaultPageSize
	}
	if err := s.validator.Struct(filter); err != nil {
		return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report filter")
	}
	if filter.PageSize > s.cfg.MaxPageSize {
		return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("limit must not exceed %d", s.cfg.MaxPageSize))
	}

	if claims.Role != models.RoleAdmin {
		if filter.UserAccountID == nil {
			own := claims.UserAccountID
			filter.UserAccountID = &own
		} else if !claims.CanAccess(*filter.UserAccountID) {
			return filter, appErrors.Clone(appErrors.ErrForbidden, "cannot read leads of another user account")
		}
	}
	return filter, nil
}

// userAccounts returns the owner selector list visible to the caller.
func (s *LeadReportService) userAccounts(ctx context.Context, claims *models.JWTClaims) ([]models.ReferenceEntity, error) {
	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if claims.Role == models.RoleAdmin {
		return accounts, nil
	}
	visible := make([]models.ReferenceEntity, 0, 1)
	for _, account := range accounts {
		if account.ID == claims.UserAccountID {
			visible = append(visible, account)
		}
	}
	return visible, nil
}

// loadAccounts reads the owner list through the cache. Concurrent misses share one load that
// is detached from every caller's context, so a caller that gives up only abandons its own wait.
func (s *LeadReportService) loadAccounts(ctx context.Context) ([]models.ReferenceEntity, error) {
	var cached []models.ReferenceEntity
	if hit, _ := s.cache.Get(ctx, userAccountsCacheKey, &cached); hit {
		return cached, nil
	}

	flight := s.owners.DoChan(userAccountsCacheKey, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ownerLoadTimeout)
		defer cancel()
		accounts, err := s.accounts.ListAccounts(loadCtx)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(loadCtx, userAccountsCacheKey, accounts, s.cfg.OwnerCacheTTL)
		return accounts, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.ReferenceEntity), nil
	}
}
