package main

import (
	"context"
	"log"
	"net/http"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"

	"github.com/askdocs/server/config"
	"github.com/askdocs/server/controller"
	"github.com/askdocs/server/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	// Chroma client using the v2 API. Collections are created lazily per
	// tenant, so there is nothing more to set up here.
	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if err := chromaClient.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}()

	embedder, err := services.NewEmbedder(cfg, httpClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedder: %v", err)
	}

	// The backend registry is built once from whichever API keys are
	// configured; starting with zero backends is a configuration error.
	llms, err := services.NewLLMManager(context.Background(), cfg, nil)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize LLM backends: %v", err)
	}

	store := services.NewChromaStore(chromaClient, embedder)
	merger := services.NewRetrievalMerger(store)
	synthesizer := services.NewAnswerSynthesizer(llms, cfg.GenerationTimeout)
	ragService := services.NewRAGService(store, merger, synthesizer, llms, cfg.RetrievalK)
	processor := services.NewDocumentProcessor(cfg.ChunkSize, cfg.ChunkOverlap)
	ragController := controller.NewRAGController(ragService, processor, cfg.UploadDir, cfg.MaxFileSize)

	router := gin.Default()

	// CORS middleware for browser frontends.
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", ragController.Health)

	authed := router.Group("/")
	authed.Use(controller.TenantMiddleware(cfg.AuthTokens))
	{
		authed.POST("/upload", ragController.Upload)
		authed.POST("/ask", ragController.Ask)
		authed.GET("/status", ragController.Status)
		authed.GET("/documents", ragController.ListDocuments)
		authed.DELETE("/documents", ragController.ClearDocuments)
	}

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("RAG backend starting on http://%s", addr)
	log.Printf("Available LLM backends: %v", llms.ListAvailable())
	if cfg.AuthEnabled() {
		log.Printf("Bearer-token auth enabled for %d tokens", len(cfg.AuthTokens))
	} else {
		log.Printf("Auth disabled, tenants resolved from X-User-ID header")
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
