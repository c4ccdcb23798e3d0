package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/lead-insights-api/internal/crm"
	"github.com/noah-isme/lead-insights-api/internal/models"
)

func strPtr(v string) *string { return &v }

func int64Ptr(v int64) *int64 { return &v }

// memoryLeadStore keeps leads in insertion order; the slice index stands in for seq.
type memoryLeadStore struct {
	mu        sync.Mutex
	leads     []models.Lead
	listErr   error
	countErr  error
	updateErr map[string]error
	criteria  []models.LeadCriteria
	updates   map[string]bool
	batches   []models.RequalifyLeadFilter
}

func newMemoryLeadStore(leads ...models.Lead) *memoryLeadStore {
	return &memoryLeadStore{leads: leads, updates: map[string]bool{}, updateErr: map[string]error{}}
}

func (s *memoryLeadStore) matching(criteria models.LeadCriteria) []models.Lead {
	var out []models.Lead
	for _, lead := range s.leads {
		if criteria.CreatedFrom != nil && lead.CreatedAt.Before(*criteria.CreatedFrom) {
			continue
		}
		if criteria.UserAccountID != nil && lead.UserAccountID != *criteria.UserAccountID {
			continue
		}
		out = append(out, lead)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memoryLeadStore) List(ctx context.Context, criteria models.LeadCriteria, limit, offset int) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = append(s.criteria, criteria)
	if s.listErr != nil {
		return nil, s.listErr
	}
	all := s.matching(criteria)
	if offset >= len(all) {
		return []models.Lead{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]models.Lead{}, all[offset:end]...), nil
}

func (s *memoryLeadStore) Count(ctx context.Context, criteria models.LeadCriteria) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = append(s.criteria, criteria)
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.matching(criteria)), nil
}

func (s *memoryLeadStore) ListForRequalify(ctx context.Context, filter models.RequalifyLeadFilter) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, filter)
	var out []models.Lead
	for _, lead := range s.leads {
		if lead.UserAccountID != filter.Scope.UserAccountID || lead.CRMLeadID == nil {
			continue
		}
		if (filter.Scope.AccountID == nil) != (lead.AccountID == nil) {
			continue
		}
		if filter.Scope.AccountID != nil && *filter.Scope.AccountID != *lead.AccountID {
			continue
		}
		if filter.CreatedFrom != nil && lead.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedBefore != nil && !lead.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		if filter.AfterID != "" && lead.ID <= filter.AfterID {
			continue
		}
		out = append(out, lead)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memoryLeadStore) UpdateQualification(ctx context.Context, leadID string, qualified bool, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErr[leadID]; err != nil {
		return err
	}
	s.updates[leadID] = qualified
	for i := range s.leads {
		if s.leads[i].ID == leadID {
			s.leads[i].IsQualified = qualified
			s.leads[i].QualificationCheckedAt = &checkedAt
		}
	}
	return nil
}

type fakeReferenceFetcher struct {
	mu       sync.Mutex
	entities map[models.ReferenceKind][]models.ReferenceEntity
	err      map[models.ReferenceKind]error
	calls    map[models.ReferenceKind][][]string
}

func newFakeReferenceFetcher() *fakeReferenceFetcher {
	return &fakeReferenceFetcher{
		entities: map[models.ReferenceKind][]models.ReferenceEntity{},
		err:      map[models.ReferenceKind]error{},
		calls:    map[models.ReferenceKind][][]string{},
	}
}

func (f *fakeReferenceFetcher) FetchByIDs(ctx context.Context, kind models.ReferenceKind, ids []string) ([]models.ReferenceEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind] = append(f.calls[kind], ids)
	if err := f.err[kind]; err != nil {
		return nil, err
	}
	wanted := map[string]struct{}{}
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []models.ReferenceEntity
	for _, entity := range f.entities[kind] {
		if _, ok := wanted[entity.ID]; ok {
			out = append(out, entity)
		}
	}
	return out, nil
}

type fakeAccountLister struct {
	mu       sync.Mutex
	accounts []models.ReferenceEntity
	calls    int
	err      error

	// entered is signalled on each call; when gate is set, calls block until it closes.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeAccountLister) ListAccounts(ctx context.Context) ([]models.ReferenceEntity, error) {
	f.mu.Lock()
	f.calls++
	accounts, err, entered, gate := f.accounts, f.err, f.entered, f.gate
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (f *fakeAccountLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIntegrationFinder struct {
	integration *models.CRMIntegration
	err         error
}

func (f *fakeIntegrationFinder) FindByScope(ctx context.Context, scope models.SyncScope) (*models.CRMIntegration, error) {
	return f.integration, f.err
}

// fakeCRM answers with a qualification field value per CRM lead id.
type fakeCRM struct {
	mu      sync.Mutex
	leads   map[int64]crm.Lead
	failOn  map[int]error
	calls   int
	batches [][]int64
}

func (f *fakeCRM) LeadsByID(ctx context.Context, conn crm.Connection, ids []int64) (map[int64]crm.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, ids)
	if err := f.failOn[f.calls]; err != nil {
		return nil, err
	}
	out := make(map[int64]crm.Lead, len(ids))
	for _, id := range ids {
		if lead, ok := f.leads[id]; ok {
			out[id] = lead
		}
	}
	return out, nil
}

const testQualificationField int64 = 500

func crmLeadWithValue(id int64, raw string) crm.Lead {
	return crm.Lead{ID: id, CustomFields: []crm.CustomFieldValue{{
		FieldID: testQualificationField,
		Values:  []crm.FieldValue{{Value: []byte(raw)}},
	}}}
}

func testIntegration() *models.CRMIntegration {
	fieldID := testQualificationField
	return &models.CRMIntegration{
		UserAccountID:        testOwnerID,
		Subdomain:            "acme",
		AccessToken:          strPtr("token"),
		QualificationFieldID: &fieldID,
		QualifiedValues:      []string{"Qualified"},
	}
}

const (
	testOwnerID   = "6f1c1d8e-7a53-4a52-9d0b-0b7b8f0e1a01"
	testOtherID   = "6f1c1d8e-7a53-4a52-9d0b-0b7b8f0e1a02"
	testAccountID = "9a3e5c21-1d2f-4b8a-8c3e-2f4d6b8a0c11"
)

type memorySyncLogStore struct {
	mu        sync.Mutex
	entries   []models.SyncLogEntry
	createErr error
}

func (s *memorySyncLogStore) Create(ctx context.Context, entry *models.SyncLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memorySyncLogStore) Latest(ctx context.Context, scope models.SyncScope, syncType models.SyncType) (*models.SyncLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.SyncLogEntry
	for i := range s.entries {
		entry := s.entries[i]
		if entry.UserAccountID != scope.UserAccountID || entry.SyncType != syncType {
			continue
		}
		if (entry.AccountID == nil) != (scope.AccountID == nil) {
			continue
		}
		if entry.AccountID != nil && *entry.AccountID != *scope.AccountID {
			continue
		}
		if latest == nil || entry.CreatedAt.After(latest.CreatedAt) {
			latest = &entry
		}
	}
	return latest, nil
}

func leadsFixture(n int, owner string, base time.Time) []models.Lead {
	leads := make([]models.Lead, 0, n)
	for i := 0; i < n; i++ {
		leads = append(leads, models.Lead{
			ID:            fmt.Sprintf("lead-%03d", i),
			Name:          fmt.Sprintf("Lead %d", i),
			UserAccountID: owner,
			CRMLeadID:     int64Ptr(int64(1000 + i)),
			CreatedAt:     base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return leads
}

var errStorage = errors.New("storage unavailable")
