package services

import (
	"context"
	"sync"

	"github.com/askdocs/server/models"
)

// memStore is an in-memory CollectionStore. Query results can either be
// fixed per key (for ranking tests with known distances) or derived from
// the chunks added through Add (for end-to-end engine tests).
type memStore struct {
	mu       sync.Mutex
	chunks   map[string][]models.Chunk
	fixtures map[string][]models.ScoredChunk
	queryErr map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		chunks:   make(map[string][]models.Chunk),
		fixtures: make(map[string][]models.ScoredChunk),
		queryErr: make(map[string]error),
	}
}

func (s *memStore) setFixture(key string, results ...models.ScoredChunk) {
	s.fixtures[key] = results
}

func (s *memStore) Add(_ context.Context, key string, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[key] = append(s.chunks[key], chunks...)
	return nil
}

func (s *memStore) Query(_ context.Context, key, _ string, k int) ([]models.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queryErr[key]; err != nil {
		return nil, err
	}
	if fixture, ok := s.fixtures[key]; ok {
		if len(fixture) > k {
			fixture = fixture[:k]
		}
		return fixture, nil
	}
	var out []models.ScoredChunk
	for i, chunk := range s.chunks[key] {
		if len(out) == k {
			break
		}
		out = append(out, models.ScoredChunk{Chunk: chunk, Distance: 0.1 * float64(i+1)})
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks[key]), nil
}

func (s *memStore) CountDistinctSources(ctx context.Context, key string) (int, error) {
	docs, err := s.ListSources(ctx, key)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *memStore) ListSources(_ context.Context, key string) ([]models.DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grouped := make(map[string]int)
	var order []string
	for _, chunk := range s.chunks[key] {
		source := chunk.Source()
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

func (s *memStore) RemoveSource(_ context.Context, key, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[key][:0]
	for _, chunk := range s.chunks[key] {
		if chunk.Source() != source {
			kept = append(kept, chunk)
		}
	}
	s.chunks[key] = kept
	return nil
}

func (s *memStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, key)
	return nil
}

// echoBackend returns its own prompt as the answer and counts invocations.
type echoBackend struct {
	name  string
	mu    sync.Mutex
	calls int
}

func (b *echoBackend) Name() string { return b.name }

func (b *echoBackend) Invoke(_ context.Context, prompt string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	return prompt, nil
}

func (b *echoBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// failBackend always returns err.
type failBackend struct {
	name string
	err  error
}

func (b *failBackend) Name() string { return b.name }

func (b *failBackend) Invoke(context.Context, string) (string, error) {
	return "", b.err
}

// stallBackend blocks until the context is cancelled.
type stallBackend struct {
	name string
}

func (b *stallBackend) Name() string { return b.name }

func (b *stallBackend) Invoke(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func scoredChunk(text, source string, distance float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{
			Text:     text,
			Metadata: map[string]interface{}{"source": source},
		},
		Distance: distance,
	}
}
