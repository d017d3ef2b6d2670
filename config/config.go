package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting for the backend. It is built once at
// process start by Load and passed explicitly to constructors; components
// never read the environment themselves.
type Config struct {
	// Server
	Host string
	Port string

	// Vector store
	ChromaURL string

	// LLM credentials. Any subset may be present; at least one must be.
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string

	// Embeddings
	EmbeddingProvider string // "ollama" or "openai"
	OllamaURL         string
	OllamaEmbedModel  string

	// Document processing
	ChunkSize    int
	ChunkOverlap int
	MaxFileSize  int64
	UploadDir    string

	// Retrieval / generation
	RetrievalK        int
	GenerationTimeout time.Duration

	// AuthTokens maps bearer tokens to tenant ids. When empty, the server
	// runs in open mode and trusts the X-User-ID header instead.
	AuthTokens map[string]string
}

// Load builds the configuration from the environment. A .env file in the
// working directory is honoured when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("CONFIG: No .env file found, relying on environment variables.")
	}

	cfg := &Config{
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8000"),
		ChromaURL:         getEnv("CHROMA_URL", "http://localhost:8001"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
		OllamaURL:         getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModel:  getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text:v1.5"),
		ChunkSize:         getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 200),
		MaxFileSize:       int64(getEnvInt("MAX_FILE_SIZE", 10*1024*1024)),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		RetrievalK:        getEnvInt("RETRIEVAL_K", 4),
		GenerationTimeout: time.Duration(getEnvInt("GENERATION_TIMEOUT_SECS", 60)) * time.Second,
		AuthTokens:        parseAuthTokens(os.Getenv("AUTH_TOKENS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" && c.AnthropicAPIKey == "" && c.GeminiAPIKey == "" {
		return fmt.Errorf("config: at least one LLM API key must be provided")
	}
	switch c.EmbeddingProvider {
	case "ollama":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: EMBEDDING_PROVIDER=openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.EmbeddingProvider)
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: invalid chunking (size=%d overlap=%d)", c.ChunkSize, c.ChunkOverlap)
	}
	if c.RetrievalK < 1 {
		return fmt.Errorf("config: RETRIEVAL_K must be at least 1")
	}
	if err := os.MkdirAll(c.UploadDir, 0o755); err != nil {
		return fmt.Errorf("config: could not create upload dir %s: %w", c.UploadDir, err)
	}
	return nil
}

// AuthEnabled reports whether bearer-token auth is configured.
func (c *Config) AuthEnabled() bool { return len(c.AuthTokens) > 0 }

// parseAuthTokens parses "token1:user1,token2:user2" into a lookup map.
// Malformed entries are skipped with a warning rather than aborting startup.
func parseAuthTokens(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	tokens := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Printf("CONFIG WARN: skipping malformed AUTH_TOKENS entry %q", pair)
			continue
		}
		tokens[parts[0]] = parts[1]
	}
	return tokens
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("CONFIG WARN: %s=%q is not an integer, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
