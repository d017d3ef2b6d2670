package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"

	"github.com/askdocs/server/config"
)

// LLMManager tracks the generation backends that could be built from the
// configured credentials and picks one uniformly at random per request.
// Random selection is a deliberate load-spreading policy, not a quality
// ranking: retries may land on a different backend than the original call.
//
// The registry is built once at startup and is immutable afterwards.
type LLMManager struct {
	backends map[string]Backend
	names    []string

	mu  sync.Mutex
	rng *rand.Rand
}

// backendEntry describes one provider: its name, whether credentials for it
// are present, and how to build it. Each entry is independently fallible;
// a failed build is logged and skipped rather than aborting the registry.
type backendEntry struct {
	name       string
	credential string
	build      func(ctx context.Context) (Backend, error)
}

// NewLLMManager builds the backend registry from whichever API keys are set
// in the configuration. It returns ErrNoBackendAvailable when no backend
// could be constructed, which should prevent the engine from starting.
//
// rng drives the per-request selection; pass a seeded source for
// reproducible tests or nil for the default.
func NewLLMManager(ctx context.Context, cfg *config.Config, rng *rand.Rand) (*LLMManager, error) {
	entries := []backendEntry{
		{
			name:       "openai",
			credential: cfg.OpenAIAPIKey,
			build: func(ctx context.Context) (Backend, error) {
				return NewOpenAIBackend(cfg.OpenAIAPIKey), nil
			},
		},
		{
			name:       "claude",
			credential: cfg.AnthropicAPIKey,
			build: func(ctx context.Context) (Backend, error) {
				return NewClaudeBackend(cfg.AnthropicAPIKey)
			},
		},
		{
			name:       "gemini",
			credential: cfg.GeminiAPIKey,
			build: func(ctx context.Context) (Backend, error) {
				return NewGeminiBackend(ctx, cfg.GeminiAPIKey)
			},
		},
	}

	backends := make(map[string]Backend)
	for _, entry := range entries {
		if entry.credential == "" {
			continue
		}
		backend, err := entry.build(ctx)
		if err != nil {
			log.Printf("LLM ERROR: Failed to initialize %s backend: %v", entry.name, err)
			continue
		}
		backends[entry.name] = backend
		log.Printf("LLM: %s backend initialized successfully", entry.name)
	}

	return newLLMManagerFromBackends(backends, rng)
}

// NewLLMManagerWithBackends builds a manager over pre-constructed backends.
// Used by tests to register stubs.
func NewLLMManagerWithBackends(rng *rand.Rand, backends ...Backend) (*LLMManager, error) {
	byName := make(map[string]Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}
	return newLLMManagerFromBackends(byName, rng)
}

func newLLMManagerFromBackends(backends map[string]Backend, rng *rand.Rand) (*LLMManager, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: no LLM API keys found, please check your environment", ErrNoBackendAvailable)
	}
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	log.Printf("LLM: Initialized %d backends: %v", len(names), names)
	return &LLMManager{backends: backends, names: names, rng: rng}, nil
}

// PickRandom selects one available backend uniformly at random and returns
// it together with its name.
func (m *LLMManager) PickRandom() (Backend, string, error) {
	if len(m.names) == 0 {
		return nil, "", ErrNoBackendAvailable
	}
	m.mu.Lock()
	name := m.names[m.rng.Intn(len(m.names))]
	m.mu.Unlock()
	return m.backends[name], name, nil
}

// IsAvailable reports whether a backend with the given name is registered.
func (m *LLMManager) IsAvailable(name string) bool {
	_, ok := m.backends[name]
	return ok
}

// ListAvailable returns a stable snapshot of the registered backend names.
func (m *LLMManager) ListAvailable() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
