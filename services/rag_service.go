package services

import (
	"context"
	"fmt"
	"log"

	"github.com/askdocs/server/models"
)

// RAGService is the public contract of the answering engine. Every
// operation is scoped to one tenant; the shared common-knowledge collection
// is only ever read, never written, through this interface.
type RAGService interface {
	Ingest(ctx context.Context, tenant models.TenantKey, chunks []models.Chunk) error
	Ask(ctx context.Context, tenant models.TenantKey, question string, k int) (*models.AnswerResult, error)
	Status(ctx context.Context, tenant models.TenantKey) (int, error)
	ListDocuments(ctx context.Context, tenant models.TenantKey) ([]models.DocumentInfo, error)
	Clear(ctx context.Context, tenant models.TenantKey) error
	ListBackends() []string
}

// ragServiceImpl orchestrates store, merger and synthesizer. It holds no
// cross-request mutable state: the backend registry is immutable and the
// collection store is the only persistence.
type ragServiceImpl struct {
	store       CollectionStore
	merger      *RetrievalMerger
	synthesizer *AnswerSynthesizer
	llms        *LLMManager
	defaultK    int
}

// NewRAGService creates the answering engine.
func NewRAGService(store CollectionStore, merger *RetrievalMerger, synthesizer *AnswerSynthesizer, llms *LLMManager, defaultK int) RAGService {
	if defaultK < 1 {
		defaultK = 4
	}
	return &ragServiceImpl{
		store:       store,
		merger:      merger,
		synthesizer: synthesizer,
		llms:        llms,
		defaultK:    defaultK,
	}
}

// Ingest persists the chunks under the tenant's collection.
func (r *ragServiceImpl) Ingest(ctx context.Context, tenant models.TenantKey, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks to ingest", ErrUnsupportedInput)
	}
	if err := r.store.Add(ctx, tenant.Key(), chunks); err != nil {
		return fmt.Errorf("failed to ingest %d chunks for %s: %w", len(chunks), tenant, err)
	}
	log.Printf("SERVICE: Ingested %d chunks for tenant %s", len(chunks), tenant)
	return nil
}

// Ask answers a question from the tenant's documents plus the shared
// knowledge base. A tenant with no documents gets ErrNoDocuments without
// consulting the shared collection; the shared collection supplements a
// populated tenant, it never substitutes for an empty one.
func (r *ragServiceImpl) Ask(ctx context.Context, tenant models.TenantKey, question string, k int) (*models.AnswerResult, error) {
	if k < 1 {
		k = r.defaultK
	}

	count, err := r.store.Count(ctx, tenant.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to check documents for %s: %w", tenant, err)
	}
	if count == 0 {
		return nil, ErrNoDocuments
	}

	chunks, sources, err := r.merger.Merge(ctx, tenant, question, k)
	if err != nil {
		return nil, err
	}

	result, err := r.synthesizer.Synthesize(ctx, chunks, sources, question)
	if err != nil {
		return nil, err
	}
	log.Printf("SERVICE: Answered question for tenant %s using backend %q", tenant, result.BackendUsed)
	return result, nil
}

// Status reports the number of distinct documents the tenant has ingested.
func (r *ragServiceImpl) Status(ctx context.Context, tenant models.TenantKey) (int, error) {
	count, err := r.store.CountDistinctSources(ctx, tenant.Key())
	if err != nil {
		return 0, fmt.Errorf("failed to count documents for %s: %w", tenant, err)
	}
	return count, nil
}

// ListDocuments groups the tenant's chunks by source document.
func (r *ragServiceImpl) ListDocuments(ctx context.Context, tenant models.TenantKey) ([]models.DocumentInfo, error) {
	docs, err := r.store.ListSources(ctx, tenant.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for %s: %w", tenant, err)
	}
	return docs, nil
}

// Clear removes every chunk from the tenant's collection. The shared
// collection is untouched. Clearing twice is not an error.
func (r *ragServiceImpl) Clear(ctx context.Context, tenant models.TenantKey) error {
	if err := r.store.Clear(ctx, tenant.Key()); err != nil {
		return fmt.Errorf("failed to clear documents for %s: %w", tenant, err)
	}
	log.Printf("SERVICE: Cleared all documents for tenant %s", tenant)
	return nil
}

// ListBackends returns the names of the configured generation backends.
func (r *ragServiceImpl) ListBackends() []string {
	return r.llms.ListAvailable()
}
