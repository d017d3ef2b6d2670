package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMManager_EmptyRegistryFails(t *testing.T) {
	_, err := NewLLMManagerWithBackends(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBackendAvailable)
}

func TestPickRandom_ReturnsRegisteredBackend(t *testing.T) {
	manager, err := NewLLMManagerWithBackends(rand.New(rand.NewSource(1)),
		&echoBackend{name: "openai"},
	)
	require.NoError(t, err)

	backend, name, err := manager.PickRandom()
	require.NoError(t, err)
	assert.Equal(t, "openai", name)
	assert.Equal(t, "openai", backend.Name())
}

// Selection is a load-spreading policy: over many trials every configured
// backend should be visited. This is a statistical fairness check, not a
// strict uniformity assertion.
func TestPickRandom_VisitsEveryBackend(t *testing.T) {
	manager, err := NewLLMManagerWithBackends(rand.New(rand.NewSource(42)),
		&echoBackend{name: "openai"},
		&echoBackend{name: "claude"},
		&echoBackend{name: "gemini"},
	)
	require.NoError(t, err)

	seen := make(map[string]int)
	for i := 0; i < 300; i++ {
		_, name, err := manager.PickRandom()
		require.NoError(t, err)
		seen[name]++
	}

	assert.Len(t, seen, 3)
	for _, name := range []string{"openai", "claude", "gemini"} {
		assert.Greater(t, seen[name], 0, "backend %s never selected", name)
	}
}

func TestIsAvailable(t *testing.T) {
	manager, err := NewLLMManagerWithBackends(nil, &echoBackend{name: "claude"})
	require.NoError(t, err)

	assert.True(t, manager.IsAvailable("claude"))
	assert.False(t, manager.IsAvailable("openai"))
}

func TestListAvailable_StableSortedSnapshot(t *testing.T) {
	manager, err := NewLLMManagerWithBackends(nil,
		&echoBackend{name: "gemini"},
		&echoBackend{name: "claude"},
		&echoBackend{name: "openai"},
	)
	require.NoError(t, err)

	names := manager.ListAvailable()
	assert.Equal(t, []string{"claude", "gemini", "openai"}, names)

	// Mutating the snapshot must not affect the registry.
	names[0] = "mutated"
	assert.Equal(t, []string{"claude", "gemini", "openai"}, manager.ListAvailable())
}
