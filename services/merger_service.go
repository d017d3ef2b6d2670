package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/askdocs/server/models"
)

// RetrievalMerger produces a single ranked context from the tenant's private
// collection and the shared common-knowledge collection.
type RetrievalMerger struct {
	store CollectionStore
}

// NewRetrievalMerger creates a merger over the given store.
func NewRetrievalMerger(store CollectionStore) *RetrievalMerger {
	return &RetrievalMerger{store: store}
}

// Merge queries the tenant and common collections for the top k chunks each,
// ranks the union by ascending distance and truncates to k. Ranking is blind
// to origin: the final top-k may be drawn entirely from one collection when
// its chunks dominate by score. Ties keep tenant results ahead of common
// ones, so the ordering is deterministic.
//
// The two queries are independent reads and run concurrently; the merge
// waits for both. Returned chunks have their scores dropped; the second
// return value is the union of their source names. An empty result means no
// relevant context exists.
func (m *RetrievalMerger) Merge(ctx context.Context, tenant models.TenantKey, question string, k int) ([]models.Chunk, []string, error) {
	if k < 1 {
		return nil, nil, fmt.Errorf("merge: k must be at least 1, got %d", k)
	}

	var (
		wg         sync.WaitGroup
		tenantDocs []models.ScoredChunk
		commonDocs []models.ScoredChunk
		tenantErr  error
		commonErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		tenantDocs, tenantErr = m.store.Query(ctx, tenant.Key(), question, k)
	}()
	go func() {
		defer wg.Done()
		commonDocs, commonErr = m.store.Query(ctx, models.CommonCollection, question, k)
	}()
	wg.Wait()

	if tenantErr != nil {
		return nil, nil, fmt.Errorf("tenant retrieval failed: %w", tenantErr)
	}
	if commonErr != nil {
		return nil, nil, fmt.Errorf("common knowledge retrieval failed: %w", commonErr)
	}

	// Tenant results first so that equal distances resolve in their favour.
	merged := make([]models.ScoredChunk, 0, len(tenantDocs)+len(commonDocs))
	merged = append(merged, tenantDocs...)
	merged = append(merged, commonDocs...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	if len(merged) > k {
		merged = merged[:k]
	}

	chunks := make([]models.Chunk, 0, len(merged))
	seen := make(map[string]bool)
	sources := make([]string, 0)
	for _, sc := range merged {
		chunks = append(chunks, sc.Chunk)
		if source := sc.Chunk.Source(); !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}
	}
	return chunks, sources, nil
}
