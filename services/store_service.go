package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"

	"github.com/askdocs/server/models"
)

// CollectionStore is a per-key persistent vector collection. Keys name
// either a tenant's private collection or the shared common-knowledge
// collection. All operations are safe to call concurrently across keys,
// and every storage failure propagates to the caller -- an error is never
// flattened into an empty result.
type CollectionStore interface {
	Add(ctx context.Context, key string, chunks []models.Chunk) error
	Query(ctx context.Context, key, question string, k int) ([]models.ScoredChunk, error)
	Count(ctx context.Context, key string) (int, error)
	CountDistinctSources(ctx context.Context, key string) (int, error)
	ListSources(ctx context.Context, key string) ([]models.DocumentInfo, error)
	RemoveSource(ctx context.Context, key, source string) error
	Clear(ctx context.Context, key string) error
}

// ChromaStore implements CollectionStore on top of a ChromaDB server using
// the v2 API. Collections are created lazily on first use of a key and the
// handles are cached for the process lifetime.
type ChromaStore struct {
	client   chromago.Client
	embedder Embedder

	mu          sync.Mutex
	collections map[string]chromago.Collection
}

// NewChromaStore creates a store backed by the given Chroma client. The
// embedder is used for both document and query vectors.
func NewChromaStore(client chromago.Client, embedder Embedder) *ChromaStore {
	return &ChromaStore{
		client:      client,
		embedder:    embedder,
		collections: make(map[string]chromago.Collection),
	}
}

// collection returns the cached handle for key, creating the collection on
// the server if it does not exist yet.
func (s *ChromaStore) collection(ctx context.Context, key string) (chromago.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[key]; ok {
		return col, nil
	}

	col, err := s.client.GetOrCreateCollection(
		ctx,
		key,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("created_by", "rag_service"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %q: %w", key, err)
	}
	s.collections[key] = col
	return col, nil
}

// Add embeds the chunks and persists them under key. An empty chunk slice is
// a logged warning no-op.
func (s *ChromaStore) Add(ctx context.Context, key string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		log.Printf("STORE WARN: no chunks provided to add for %q", key)
		return nil
	}

	col, err := s.collection(ctx, key)
	if err != nil {
		return err
	}

	ids := make([]chromago.DocumentID, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	vectors := make([]embeddings.Embedding, 0, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, 0, len(chunks))

	for i, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("could not embed chunk %d for %q: %w", i, key, err)
		}
		ids = append(ids, chromago.DocumentID(uuid.New().String()))
		texts = append(texts, chunk.Text)
		vectors = append(vectors, embeddings.NewEmbeddingFromFloat32(vector))
		metadatas = append(metadatas, metadataFromMap(chunk.Metadata))
	}

	err = col.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add %d chunks to %q: %w", len(chunks), key, err)
	}

	log.Printf("STORE: Added %d chunks to collection %q", len(chunks), key)
	return nil
}

// Query embeds the question and returns up to k chunks from key ordered by
// ascending distance. An absent or empty collection yields an empty slice,
// never an error.
func (s *ChromaStore) Query(ctx context.Context, key, question string, k int) ([]models.ScoredChunk, error) {
	col, err := s.collection(ctx, key)
	if err != nil {
		return nil, err
	}

	queryVector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	results, err := col.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(queryVector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %w", key, err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	scored := make([]models.ScoredChunk, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		var meta map[string]interface{}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			meta = metadataToMap(metadataGroups[0][i])
		}
		var distance float64
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			distance = float64(distanceGroups[0][i])
		}
		scored = append(scored, models.ScoredChunk{
			Chunk:    models.Chunk{Text: doc.ContentString(), Metadata: meta},
			Distance: distance,
		})
	}
	return scored, nil
}

// Count returns the number of chunks stored under key.
func (s *ChromaStore) Count(ctx context.Context, key string) (int, error) {
	col, err := s.collection(ctx, key)
	if err != nil {
		return 0, err
	}
	count, err := col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in %q: %w", key, err)
	}
	return int(count), nil
}

// CountDistinctSources returns the number of distinct document sources under
// key. This is what callers see as "documents_count": a document usually
// spans many chunks.
func (s *ChromaStore) CountDistinctSources(ctx context.Context, key string) (int, error) {
	docs, err := s.ListSources(ctx, key)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// ListSources groups the chunk metadata under key by source document.
func (s *ChromaStore) ListSources(ctx context.Context, key string) ([]models.DocumentInfo, error) {
	col, err := s.collection(ctx, key)
	if err != nil {
		return nil, err
	}

	results, err := col.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from %q: %w", key, err)
	}

	grouped := make(map[string]int)
	order := make([]string, 0)
	for _, meta := range results.GetMetadatas() {
		source := "Unknown"
		if m := metadataToMap(meta); m != nil {
			if s, ok := m["source"].(string); ok && s != "" {
				source = s
			}
		}
		if _, seen := grouped[source]; !seen {
			order = append(order, source)
		}
		grouped[source]++
	}

	docs := make([]models.DocumentInfo, 0, len(order))
	for _, source := range order {
		docs = append(docs, models.DocumentInfo{Source: source, Chunks: grouped[source], Processed: true})
	}
	return docs, nil
}

// RemoveSource deletes every chunk under key whose metadata.source matches.
// Removing a source with no chunks succeeds.
func (s *ChromaStore) RemoveSource(ctx context.Context, key, source string) error {
	col, err := s.collection(ctx, key)
	if err != nil {
		return err
	}
	where := chromago.EqString("source", source)
	if err := col.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete chunks of %q from %q: %w", source, key, err)
	}
	log.Printf("STORE: Removed chunks of source %q from collection %q", source, key)
	return nil
}

// Clear deletes every chunk id under key. Clearing an empty or nonexistent
// collection succeeds.
func (s *ChromaStore) Clear(ctx context.Context, key string) error {
	col, err := s.collection(ctx, key)
	if err != nil {
		return err
	}

	results, err := col.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ids in %q: %w", key, err)
	}
	ids := results.GetIDs()
	if len(ids) == 0 {
		return nil
	}

	if err := col.Delete(ctx, chromago.WithIDsDelete(ids...)); err != nil {
		return fmt.Errorf("failed to delete %d chunks from %q: %w", len(ids), key, err)
	}
	log.Printf("STORE: Cleared %d chunks from collection %q", len(ids), key)
	return nil
}

// metadataFromMap converts chunk metadata into Chroma document metadata.
// Only attribute types Chroma supports are carried over.
func metadataFromMap(meta map[string]interface{}) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// metadataToMap converts Chroma document metadata back into a plain map.
// DocumentMetadata exposes no accessor for all values, so it goes through a
// JSON round-trip.
func metadataToMap(meta chromago.DocumentMetadata) map[string]interface{} {
	if meta == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		log.Printf("STORE WARN: could not marshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	var metadataMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metadataMap); err != nil {
		log.Printf("STORE WARN: could not unmarshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	return metadataMap
}
