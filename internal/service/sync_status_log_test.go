package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
	"github.com/noah-isme/lead-insights-api/pkg/jobs"
)

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestSyncStatusLogRecord(t *testing.T) {
	store := &memorySyncLogStore{}
	log := NewSyncStatusLog(store, nil, nil)

	entry := &models.SyncLogEntry{UserAccountID: testOwnerID, SyncType: models.SyncTypeRequalify, Status: models.SyncStatusSuccess}
	log.Record(context.Background(), entry)

	require.Len(t, store.entries, 1)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestSyncStatusLogQueuesFailedInserts(t *testing.T) {
	store := &memorySyncLogStore{createErr: errStorage}
	queue := &recordingQueue{}
	log := NewSyncStatusLog(store, NewMetricsService(), nil)
	log.UseRetryQueue(queue)

	log.Record(context.Background(), &models.SyncLogEntry{UserAccountID: testOwnerID, SyncType: models.SyncTypeRequalify, Status: models.SyncStatusFailed})
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, SyncLogRetryJobType, queue.jobs[0].Type)

	store.createErr = nil
	require.NoError(t, log.HandleRetry(context.Background(), queue.jobs[0]))
	require.Len(t, store.entries, 1)
	assert.Equal(t, queue.jobs[0].ID, store.entries[0].ID)
}

func TestSyncStatusLogSwallowsQueueFailure(t *testing.T) {
	log := NewSyncStatusLog(&memorySyncLogStore{createErr: errStorage}, NewMetricsService(), nil)
	log.UseRetryQueue(&recordingQueue{err: errors.New("queue full")})

	assert.NotPanics(t, func() {
		log.Record(context.Background(), &models.SyncLogEntry{UserAccountID: testOwnerID})
	})
	log.HandleExhausted(jobs.Job{ID: "x"}, errStorage)
}

func TestSyncStatusLogRetriesThroughQueue(t *testing.T) {
	store := &memorySyncLogStore{createErr: errStorage}
	log := NewSyncStatusLog(store, nil, nil)
	queue := jobs.NewQueue("sync-log", log.HandleRetry, jobs.QueueConfig{RetryDelay: 10 * time.Millisecond, MaxRetries: 5})
	queue.Start(context.Background())
	defer queue.Stop()
	log.UseRetryQueue(queue)

	log.Record(context.Background(), &models.SyncLogEntry{UserAccountID: testOwnerID, SyncType: models.SyncTypeRequalify, Status: models.SyncStatusSuccess})
	store.mu.Lock()
	store.createErr = nil
	store.mu.Unlock()

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.entries) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSyncStatusLogLatestIsScopeExact(t *testing.T) {
	store := &memorySyncLogStore{}
	log := NewSyncStatusLog(store, nil, nil)
	account := testAccountID
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	log.Record(context.Background(), &models.SyncLogEntry{UserAccountID: testOwnerID, SyncType: models.SyncTypeRequalify, Status: models.SyncStatusSuccess, CreatedAt: t0})
	log.Record(context.Background(), &models.SyncLogEntry{UserAccountID: testOwnerID, AccountID: &account, SyncType: models.SyncTypeRequalify, Status: models.SyncStatusFailed, CreatedAt: t0.Add(time.Minute)})

	latest, err := log.Latest(context.Background(), models.SyncScope{UserAccountID: testOwnerID})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.SyncStatusSuccess, latest.Status)

	latest, err = log.Latest(context.Background(), models.SyncScope{UserAccountID: testOwnerID, AccountID: &account})
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, latest.Status)

	latest, err = log.Latest(context.Background(), models.SyncScope{UserAccountID: testOtherID})
	require.NoError(t, err)
	assert.Nil(t, latest)
}

type failingSyncLogStore struct{ memorySyncLogStore }

func (s *failingSyncLogStore) Latest(context.Context, models.SyncScope, models.SyncType) (*models.SyncLogEntry, error) {
	return nil, errStorage
}

func TestSyncStatusLogLatestError(t *testing.T) {
	_, err := NewSyncStatusLog(&failingSyncLogStore{}, nil, nil).Latest(context.Background(), models.SyncScope{UserAccountID: testOwnerID})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

// stallingSyncLogStore never finishes an insert before its context ends.
type stallingSyncLogStore struct {
	memorySyncLogStore
}

func (s *stallingSyncLogStore) Create(ctx context.Context, entry *models.SyncLogEntry) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSyncStatusLogRetryIsBounded(t *testing.T) {
	log := NewSyncStatusLog(&stallingSyncLogStore{}, nil, nil)
	log.retryTimeout = 20 * time.Millisecond
	job := jobs.Job{ID: "entry-1", Type: SyncLogRetryJobType, Payload: models.SyncLogEntry{ID: "entry-1", UserAccountID: testOwnerID}}

	done := make(chan error, 1)
	go func() { done <- log.HandleRetry(context.Background(), job) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("retried insert was not bounded")
	}
}
