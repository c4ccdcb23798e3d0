package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lead-insights-api/internal/crm"
	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
)

// DefaultRequalifyBatchSize and MaxRequalifyBatchSize bound the leads handled per CRM call.
const (
	DefaultRequalifyBatchSize = 50
	MaxRequalifyBatchSize     = crm.MaxLeadsPerRequest
)

type requalifyLeadStore interface {
	ListForRequalify(ctx context.Context, filter models.RequalifyLeadFilter) ([]models.Lead, error)
	UpdateQualification(ctx context.Context, leadID string, qualified bool, checkedAt time.Time) error
}

type integrationFinder interface {
	FindByScope(ctx context.Context, scope models.SyncScope) (*models.CRMIntegration, error)
}

type crmLeadFetcher interface {
	LeadsByID(ctx context.Context, conn crm.Connection, ids []int64) (map[int64]crm.Lead, error)
}

// RequalifyWorkflow re-derives the qualification flag of synced leads from their CRM
// custom field, one batch at a time.
type RequalifyWorkflow struct {
	leads        requalifyLeadStore
	integrations integrationFinder
	crm          crmLeadFetcher
	logger       *zap.Logger
	now          func() time.Time
}

// NewRequalifyWorkflow constructs a RequalifyWorkflow.
func NewRequalifyWorkflow(leads requalifyLeadStore, integrations integrationFinder, client crmLeadFetcher, logger *zap.Logger) *RequalifyWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequalifyWorkflow{leads: leads, integrations: integrations, crm: client, logger: logger, now: time.Now}
}

// Run walks every CRM-synced lead of the scope. Per-lead problems are collected in the result;
// only configuration, authorization and storage failures abort the run.
func (w *RequalifyWorkflow) Run(ctx context.Context, scope models.SyncScope, opts models.RequalifyOptions) (*models.RequalifyResult, error) {
	integration, err := w.integrations.FindByScope(ctx, scope)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load crm integration")
	}
	if !integration.Connected(w.now()) {
		return nil, appErrors.ErrNotConnected
	}
	if !integration.Configured() {
		return nil, appErrors.ErrNotConfigured
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultRequalifyBatchSize
	}
	if batchSize > MaxRequalifyBatchSize {
		batchSize = MaxRequalifyBatchSize
	}

	conn := crm.Connection{Subdomain: integration.Subdomain, AccessToken: *integration.AccessToken}
	rule := newQualificationRule(integration)
	result := &models.RequalifyResult{DryRun: opts.DryRun, Errors: []models.LeadError{}}
	filter := models.RequalifyLeadFilter{
		Scope:         scope,
		CreatedFrom:   opts.CreatedFrom,
		CreatedBefore: opts.CreatedBefore,
		Limit:         batchSize,
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, interrupted(err)
		}
		batch, err := w.leads.ListForRequalify(ctx, filter)
		if err != nil {
			if ctx.Err() != nil {
				return nil, interrupted(ctx.Err())
			}
			return nil, appErrors.Internal(err, "failed to load leads for requalification")
		}
		if len(batch) == 0 {
			break
		}
		if err := w.processBatch(ctx, conn, rule, batch, opts.DryRun, result); err != nil {
			return nil, err
		}
		if len(batch) < batchSize {
			break
		}
		filter.AfterID = batch[len(batch)-1].ID
	}

	w.logger.Info("requalification finished",
		zap.String("scope", scope.Key()),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("examined", result.Examined),
		zap.Int("changed", result.Changed),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (w *RequalifyWorkflow) processBatch(ctx context.Context, conn crm.Connection, rule qualificationRule, batch []models.Lead, dryRun bool, result *models.RequalifyResult) error {
	ids := make([]int64, 0, len(batch))
	for _, lead := range batch {
		if lead.CRMLeadID != nil {
			ids = append(ids, *lead.CRMLeadID)
		}
	}

	crmLeads, err := w.crm.LeadsByID(ctx, conn, ids)
	if err != nil {
		if errors.Is(err, crm.ErrUnauthorized) {
			return appErrors.Wrap(err, appErrors.ErrNotConnected.Code, appErrors.ErrNotConnected.Status, "crm rejected the access token")
		}
		if ctx.Err() != nil {
			return interrupted(ctx.Err())
		}
		w.logger.Warn("crm batch fetch failed", zap.Int("leads", len(batch)), zap.Error(err))
		for _, lead := range batch {
			result.Examined++
			result.AddError(lead.ID, fmt.Errorf("fetch crm lead: %w", err))
		}
		return nil
	}

	checkedAt := w.now().UTC()
	for _, lead := range batch {
		result.Examined++
		if lead.CRMLeadID == nil {
			result.AddError(lead.ID, errors.New("lead has no crm id"))
			continue
		}
		crmLead, ok := crmLeads[*lead.CRMLeadID]
		if !ok {
			result.AddError(lead.ID, fmt.Errorf("crm lead %d not found", *lead.CRMLeadID))
			continue
		}
		qualified, err := rule.evaluate(crmLead)
		if err != nil {
			result.AddError(lead.ID, err)
			continue
		}
		if qualified == lead.IsQualified {
			result.Unchanged++
			continue
		}
		if !dryRun {
			if err := w.leads.UpdateQualification(ctx, lead.ID, qualified, checkedAt); err != nil {
				w.logger.Warn("failed to persist qualification", zap.String("lead_id", lead.ID), zap.Error(err))
				result.AddError(lead.ID, fmt.Errorf("persist qualification: %w", err))
				continue
			}
		}
		result.Changed++
	}
	return nil
}

func interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Internal(err, "requalification timed out")
	}
	return appErrors.Internal(err, "requalification cancelled")
}

// qualificationRule decides a lead is qualified when its mapped custom field carries one of
// the accepted values.
type qualificationRule struct {
	fieldID  int64
	accepted map[string]struct{}
}

func newQualificationRule(integration *models.CRMIntegration) qualificationRule {
	accepted := make(map[string]struct{}, len(integration.QualifiedValues))
	for _, value := range integration.QualifiedValues {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			accepted[value] = struct{}{}
		}
	}
	return qualificationRule{fieldID: *integration.QualificationFieldID, accepted: accepted}
}

// evaluate treats an absent field as not qualified; a present field with unreadable values
// is an error.
func (r qualificationRule) evaluate(lead crm.Lead) (bool, error) {
	field, ok := lead.Field(r.fieldID)
	if !ok {
		return false, nil
	}
	if len(field.Values) == 0 {
		return false, fmt.Errorf("crm field %d has no values", r.fieldID)
	}
	qualified := false
	for _, value := range field.Values {
		tokens, err := value.Tokens()
		if err != nil {
			return false, fmt.Errorf("crm field %d: %w", r.fieldID, err)
		}
		for _, token := range tokens {
			if _, ok := r.accepted[strings.ToLower(strings.TrimSpace(token))]; ok {
				qualified = true
			}
		}
	}
	return qualified, nil
}
