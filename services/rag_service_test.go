package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/server/models"
)

func newTestEngine(t *testing.T, store *memStore, backends ...Backend) RAGService {
	t.Helper()
	if len(backends) == 0 {
		backends = []Backend{&echoBackend{name: "openai"}}
	}
	manager, err := NewLLMManagerWithBackends(nil, backends...)
	require.NoError(t, err)
	merger := NewRetrievalMerger(store)
	synth := NewAnswerSynthesizer(manager, 5*time.Second)
	return NewRAGService(store, merger, synth, manager, 4)
}

func ingestChunks(texts []string, source string) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, models.Chunk{
			Text:     text,
			Metadata: map[string]interface{}{"source": source, "chunk_num": i},
		})
	}
	return chunks
}

func TestIngest_RejectsEmptyChunkSet(t *testing.T) {
	engine := newTestEngine(t, newMemStore())
	err := engine.Ingest(context.Background(), testTenant(t), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

// An empty tenant never reaches retrieval, even when the shared collection
// could answer the question. Shared knowledge supplements a tenant's own
// documents, it does not substitute for them.
func TestAsk_EmptyTenantFailsDespiteCommonKnowledge(t *testing.T) {
	store := newMemStore()
	store.setFixture(models.CommonCollection, scoredChunk("shared wisdom", "law.txt", 0.1))

	engine := newTestEngine(t, store)
	_, err := engine.Ask(context.Background(), testTenant(t), "anything", 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestAsk_MergesTenantAndCommonKnowledge(t *testing.T) {
	store := newMemStore()
	tenant := testTenant(t)
	require.NoError(t, store.Add(context.Background(), tenant.Key(), ingestChunks([]string{"my note"}, "mine.txt")))
	store.setFixture(tenant.Key(), scoredChunk("my note", "mine.txt", 0.3))
	store.setFixture(models.CommonCollection, scoredChunk("shared wisdom", "law.txt", 0.1))

	engine := newTestEngine(t, store)
	result, err := engine.Ask(context.Background(), tenant, "question", 4)
	require.NoError(t, err)

	assert.Contains(t, result.Answer, "shared wisdom")
	assert.Contains(t, result.Answer, "my note")
	assert.ElementsMatch(t, []string{"mine.txt", "law.txt"}, result.Sources)
}

// A populated tenant whose retrieval comes back empty gets the sentinel
// result straight through Ask, with no model call made.
func TestAsk_NoRelevantContextReturnsSentinel(t *testing.T) {
	store := newMemStore()
	tenant := testTenant(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, tenant.Key(), ingestChunks([]string{"my note"}, "mine.txt")))
	store.setFixture(tenant.Key())
	store.setFixture(models.CommonCollection)

	echo := &echoBackend{name: "openai"}
	engine := newTestEngine(t, store, echo)

	result, err := engine.Ask(ctx, tenant, "something unrelated", 4)
	require.NoError(t, err)

	assert.Equal(t, models.AnswerNothingRelevant, result.Answer)
	assert.Equal(t, models.BackendNone, result.BackendUsed)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, echo.callCount())
}

func TestListDocuments_GroupsChunksBySource(t *testing.T) {
	store := newMemStore()
	tenant := testTenant(t)
	engine := newTestEngine(t, store)
	ctx := context.Background()

	require.NoError(t, engine.Ingest(ctx, tenant, ingestChunks([]string{"a1", "a2", "a3"}, "a.txt")))
	require.NoError(t, engine.Ingest(ctx, tenant, ingestChunks([]string{"b1"}, "b.txt")))

	docs, err := engine.ListDocuments(ctx, tenant)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, models.DocumentInfo{Source: "a.txt", Chunks: 3, Processed: true}, docs[0])
	assert.Equal(t, models.DocumentInfo{Source: "b.txt", Chunks: 1, Processed: true}, docs[1])
}

func TestClear_DoesNotTouchCommonCollection(t *testing.T) {
	store := newMemStore()
	tenant := testTenant(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, models.CommonCollection, ingestChunks([]string{"shared"}, "law.txt")))
	require.NoError(t, store.Add(ctx, tenant.Key(), ingestChunks([]string{"mine"}, "mine.txt")))

	engine := newTestEngine(t, store)
	require.NoError(t, engine.Clear(ctx, tenant))

	count, err := store.Count(ctx, models.CommonCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Full lifecycle: ingest, status, ask, clear, status, with the echo backend
// standing in for a real model.
func TestEngine_EndToEnd(t *testing.T) {
	store := newMemStore()
	tenant := testTenant(t)
	engine := newTestEngine(t, store, &echoBackend{name: "openai"}, &echoBackend{name: "claude"})
	ctx := context.Background()

	require.NoError(t, engine.Ingest(ctx, tenant, ingestChunks([]string{"X is one", "X is two", "X is three"}, "a.txt")))

	count, err := engine.Status(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "three chunks of one document count as a single document")

	result, err := engine.Ask(ctx, tenant, "what is X", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, result.Sources)
	assert.Contains(t, []string{"openai", "claude"}, result.BackendUsed)

	require.NoError(t, engine.Clear(ctx, tenant))

	count, err = engine.Status(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = engine.Ask(ctx, tenant, "what is X", 0)
	assert.ErrorIs(t, err, ErrNoDocuments)

	// Clearing an already-empty collection succeeds.
	assert.NoError(t, engine.Clear(ctx, tenant))
}
