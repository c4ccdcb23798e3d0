package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lead-insights-api/internal/models"
)

type referenceFetcher interface {
	FetchByIDs(ctx context.Context, kind models.ReferenceKind, ids []string) ([]models.ReferenceEntity, error)
}

// ReferenceResolver maps entity ids to display labels with one batched lookup per kind.
type ReferenceResolver struct {
	fetcher referenceFetcher
	metrics *MetricsService
}

// NewReferenceResolver constructs a ReferenceResolver.
func NewReferenceResolver(fetcher referenceFetcher, metrics *MetricsService) *ReferenceResolver {
	return &ReferenceResolver{fetcher: fetcher, metrics: metrics}
}

// Resolve returns labels keyed by id. Ids without a matching entity are absent. Empty or
// blank-only input returns an empty map without touching storage.
func (r *ReferenceResolver) Resolve(ctx context.Context, kind models.ReferenceKind, ids []string) (map[string]string, error) {
	unique := distinctIDs(ids)
	labels := make(map[string]string, len(unique))
	if len(unique) == 0 {
		return labels, nil
	}

	start := time.Now()
	entities, err := r.fetcher.FetchByIDs(ctx, kind, unique)
	r.metrics.ObserveDBQuery("references_"+string(kind), time.Since(start))
	if err != nil {
		return nil, err
	}
	for _, entity := range entities {
		labels[entity.ID] = entity.Label
	}
	return labels, nil
}

// ResolveAll resolves accounts and directions concurrently. The first failure cancels the
// other lookup and is returned once both have finished.
func (r *ReferenceResolver) ResolveAll(ctx context.Context, accountIDs, directionIDs []string) (map[string]string, map[string]string, error) {
	var accounts, directions map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = r.Resolve(gctx, models.ReferenceAccount, accountIDs)
		return err
	})
	g.Go(func() error {
		var err error
		directions, err = r.Resolve(gctx, models.ReferenceDirection, directionIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return accounts, directions, nil
}

func distinctIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
