package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
	"github.com/noah-isme/lead-insights-api/pkg/jobs"
)

// SyncLogRetryJobType tags queued sync log inserts.
const SyncLogRetryJobType = "sync_log_insert"

type syncLogStore interface {
	Create(ctx context.Context, entry *models.SyncLogEntry) error
	Latest(ctx context.Context, scope models.SyncScope, syncType models.SyncType) (*models.SyncLogEntry, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SyncStatusLog records requalification runs and answers status polls. Recording never fails
// the caller: inserts that fail are handed to a retry queue.
type SyncStatusLog struct {
	store   syncLogStore
	retries jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	// retryTimeout bounds one retried insert so a hung statement cannot stall the queue worker.
	retryTimeout time.Duration
}

// NewSyncStatusLog constructs a SyncStatusLog.
func NewSyncStatusLog(store syncLogStore, metrics *MetricsService, logger *zap.Logger) *SyncStatusLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncStatusLog{store: store, metrics: metrics, logger: logger, now: time.Now, retryTimeout: syncLogWriteTimeout}
}

// UseRetryQueue sets the queue that receives failed inserts.
func (l *SyncStatusLog) UseRetryQueue(queue jobEnqueuer) {
	l.retries = queue
}

// Record appends entry to the log.
func (l *SyncStatusLog) Record(ctx context.Context, entry *models.SyncLogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now().UTC()
	}

	err := l.store.Create(ctx, entry)
	if err == nil {
		return
	}
	l.logger.Error("failed to write sync log entry",
		zap.String("entry_id", entry.ID),
		zap.String("user_account_id", entry.UserAccountID),
		zap.String("status", string(entry.Status)),
		zap.Error(err),
	)
	if l.retries == nil {
		l.metrics.IncSyncLogDropped()
		return
	}
	if qerr := l.retries.Enqueue(jobs.Job{ID: entry.ID, Type: SyncLogRetryJobType, Payload: *entry}); qerr != nil {
		l.logger.Error("failed to queue sync log retry", zap.String("entry_id", entry.ID), zap.Error(qerr))
		l.metrics.IncSyncLogDropped()
	}
}

// HandleRetry is the queue handler that re-attempts a failed insert.
func (l *SyncStatusLog) HandleRetry(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.SyncLogEntry)
	if !ok {
		l.logger.Error("unexpected sync log retry payload", zap.String("job_id", job.ID))
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, l.retryTimeout)
	defer cancel()
	return l.store.Create(writeCtx, &entry)
}

// HandleExhausted drops an entry whose retries are used up.
func (l *SyncStatusLog) HandleExhausted(job jobs.Job, err error) {
	l.metrics.IncSyncLogDropped()
	l.logger.Error("dropping sync log entry", zap.String("entry_id", job.ID), zap.Error(err))
}

// Latest returns the newest requalify entry of exactly this scope, or nil.
func (l *SyncStatusLog) Latest(ctx context.Context, scope models.SyncScope) (*models.SyncLogEntry, error) {
	entry, err := l.store.Latest(ctx, scope, models.SyncTypeRequalify)
	if err != nil {
		l.logger.Error("failed to load sync status", zap.String("scope", scope.Key()), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load sync status")
	}
	return entry, nil
}
