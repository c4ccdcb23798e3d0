package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
)

const syncLogWriteTimeout = 5 * time.Second

type scopeLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type requalifyRunner interface {
	Run(ctx context.Context, scope models.SyncScope, opts models.RequalifyOptions) (*models.RequalifyResult, error)
}

type syncRecorder interface {
	Record(ctx context.Context, entry *models.SyncLogEntry)
	Latest(ctx context.Context, scope models.SyncScope) (*models.SyncLogEntry, error)
}

// RequalifyConfig bounds requalification runs.
type RequalifyConfig struct {
	DefaultBatchSize int
	MaxBatchSize     int
	Timeout          time.Duration
	LockTTL          time.Duration
	// Location interprets start and end dates.
	Location *time.Location
}

// RequalifyOutcome is returned to the caller of a completed run.
type RequalifyOutcome struct {
	Result  *models.RequalifyResult
	Message string
}

// RequalifyService validates requalify requests, serialises runs per scope and records every
// run in the sync status log.
type RequalifyService struct {
	workflow  requalifyRunner
	log       syncRecorder
	locks     scopeLocker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RequalifyConfig
}

// NewRequalifyService constructs a RequalifyService.
func NewRequalifyService(workflow requalifyRunner, log syncRecorder, locks scopeLocker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RequalifyConfig) *RequalifyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultBatchSize <= 0 {
		cfg.DefaultBatchSize = DefaultRequalifyBatchSize
	}
	if cfg.MaxBatchSize <= 0 || cfg.MaxBatchSize > MaxRequalifyBatchSize {
		cfg.MaxBatchSize = MaxRequalifyBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.LockTTL < cfg.Timeout {
		cfg.LockTTL = cfg.Timeout + time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &RequalifyService{workflow: workflow, log: log, locks: locks, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// Requalify runs the workflow for the requested scope.
func (s *RequalifyService) Requalify(ctx context.Context, req models.RequalifyRequest, claims *models.JWTClaims) (*RequalifyOutcome, error) {
	opts, err := s.options(req)
	if err != nil {
		return nil, err
	}
	if !claims.CanAccess(req.UserAccountID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot requalify leads of another user account")
	}

	scope := req.Scope()
	lockKey := scope.Key()
	token, acquired, err := s.locks.Acquire(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		s.logger.Error("failed to acquire requalify lock", zap.String("scope", lockKey), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to start requalification")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a requalification run is already in progress for this scope")
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), syncLogWriteTimeout)
		defer cancel()
		if err := s.locks.Release(releaseCtx, lockKey, token); err != nil {
			s.logger.Warn("failed to release requalify lock", zap.String("scope", lockKey), zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	start := time.Now()
	result, runErr := s.workflow.Run(runCtx, scope, opts)
	cancel()
	elapsed := time.Since(start)

	if runErr != nil {
		appErr := appErrors.FromError(runErr)
		s.record(ctx, scope, models.SyncStatusFailed, models.SyncFailure{Code: appErr.Code, Message: appErr.Message, DryRun: opts.DryRun})
		s.metrics.ObserveRequalifyRun(models.SyncStatusFailed, opts.DryRun, nil, elapsed)
		s.logger.Warn("requalification failed", zap.String("scope", lockKey), zap.String("code", appErr.Code), zap.Error(runErr))
		return nil, appErr
	}

	s.record(ctx, scope, models.SyncStatusSuccess, result)
	s.metrics.ObserveRequalifyRun(models.SyncStatusSuccess, opts.DryRun, result, elapsed)
	return &RequalifyOutcome{Result: result, Message: requalifyMessage(result)}, nil
}

// Status returns the latest logged run of the scope, or nil when none exists.
func (s *RequalifyService) Status(ctx context.Context, scope models.SyncScope, claims *models.JWTClaims) (*models.SyncLogEntry, error) {
	if err := s.validator.Var(scope.UserAccountID, "required,uuid"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "userAccountId must be a uuid")
	}
	if scope.AccountID != nil {
		if err := s.validator.Var(*scope.AccountID, "uuid"); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "accountId must be a uuid")
		}
	}
	if !claims.CanAccess(scope.UserAccountID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot read sync status of another user account")
	}
	return s.log.Latest(ctx, scope)
}

func (s *RequalifyService) options(req models.RequalifyRequest) (models.RequalifyOptions, error) {
	opts := models.RequalifyOptions{BatchSize: s.cfg.DefaultBatchSize, DryRun: req.DryRun}
	if err := s.validator.Struct(req); err != nil {
		return opts, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requalify payload")
	}
	if req.BatchSize != nil {
		if *req.BatchSize > s.cfg.MaxBatchSize {
			return opts, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batchSize must not exceed %d", s.cfg.MaxBatchSize))
		}
		opts.BatchSize = *req.BatchSize
	}

	if req.StartDate != nil {
		start, err := time.ParseInLocation(models.DateLayout, *req.StartDate, s.cfg.Location)
		if err != nil {
			return opts, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid startDate")
		}
		opts.CreatedFrom = &start
	}
	if req.EndDate != nil {
		end, err := time.ParseInLocation(models.DateLayout, *req.EndDate, s.cfg.Location)
		if err != nil {
			return opts, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid endDate")
		}
		before := end.AddDate(0, 0, 1)
		opts.CreatedBefore = &before
	}
	if opts.CreatedFrom != nil && opts.CreatedBefore != nil && !opts.CreatedFrom.Before(*opts.CreatedBefore) {
		return opts, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}
	return opts, nil
}

// record writes the sync log entry on a context that outlives request cancellation.
func (s *RequalifyService) record(ctx context.Context, scope models.SyncScope, status models.SyncStatus, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode sync log payload", zap.Error(err))
		body = []byte("{}")
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), syncLogWriteTimeout)
	defer cancel()
	s.log.Record(writeCtx, &models.SyncLogEntry{
		UserAccountID: scope.UserAccountID,
		AccountID:     scope.AccountID,
		SyncType:      models.SyncTypeRequalify,
		Status:        status,
		Response:      body,
	})
}

func requalifyMessage(result *models.RequalifyResult) string {
	var message string
	if result.DryRun {
		message = fmt.Sprintf("Dry run complete: %d of %d leads would change qualification, nothing was saved", result.Changed, result.Examined)
	} else {
		message = fmt.Sprintf("Requalification complete: %d of %d leads updated", result.Changed, result.Examined)
	}
	if n := len(result.Errors); n > 0 {
		message += fmt.Sprintf(" (%d failed)", n)
	}
	return message
}
