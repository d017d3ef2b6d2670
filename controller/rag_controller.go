package controller

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/askdocs/server/models"
	"github.com/askdocs/server/services"
)

// RAGController handles the HTTP requests for the RAG API. It depends on
// the RAGService for the actual business logic and on the DocumentProcessor
// for turning uploads into chunks.
type RAGController struct {
	ragService  services.RAGService
	processor   *services.DocumentProcessor
	uploadDir   string
	maxFileSize int64
}

// NewRAGController is a constructor function that creates a new
// RAGController. Called from main.go to inject the dependencies.
func NewRAGController(service services.RAGService, processor *services.DocumentProcessor, uploadDir string, maxFileSize int64) *RAGController {
	return &RAGController{
		ragService:  service,
		processor:   processor,
		uploadDir:   uploadDir,
		maxFileSize: maxFileSize,
	}
}

// Health is the Gin handler for GET /health.
func (c *RAGController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.HealthResponse{
		Status:        "healthy",
		LLMsAvailable: c.ragService.ListBackends(),
	})
}

// Upload is the Gin handler for POST /upload. It accepts one or more files
// as multipart form data, processes them into chunks and ingests them under
// the caller's tenant. Uploaded files are removed once processed.
func (c *RAGController) Upload(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No tenant resolved"})
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	var savedPaths []string
	defer func() {
		for _, path := range savedPaths {
			if err := os.Remove(path); err != nil {
				log.Printf("CONTROLLER WARN: could not remove uploaded file %s: %v", path, err)
			}
		}
	}()

	for _, file := range files {
		if !c.processor.IsSupported(file.Filename) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported file type: %s", file.Filename)})
			return
		}
		if file.Size > c.maxFileSize {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File too large: %s", file.Filename)})
			return
		}
		dest := filepath.Join(c.uploadDir, filepath.Base(file.Filename))
		if err := ctx.SaveUploadedFile(file, dest); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save uploaded file"})
			return
		}
		savedPaths = append(savedPaths, dest)
	}

	chunks, err := c.processor.Process(savedPaths)
	if err != nil {
		c.respondError(ctx, err, "Error processing documents")
		return
	}
	if err := c.ragService.Ingest(ctx.Request.Context(), tenant, chunks); err != nil {
		c.respondError(ctx, err, "Error ingesting documents")
		return
	}

	count, err := c.ragService.Status(ctx.Request.Context(), tenant)
	if err != nil {
		c.respondError(ctx, err, "Error counting documents")
		return
	}

	ctx.JSON(http.StatusOK, models.StatusResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Successfully processed %d documents", len(files)),
		DocumentsCount: count,
	})
}

// Ask is the Gin handler for POST /ask.
func (c *RAGController) Ask(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No tenant resolved"})
		return
	}

	var req models.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := c.ragService.Ask(ctx.Request.Context(), tenant, req.Question, 0)
	if err != nil {
		c.respondError(ctx, err, "Error generating answer")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Status is the Gin handler for GET /status.
func (c *RAGController) Status(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No tenant resolved"})
		return
	}

	count, err := c.ragService.Status(ctx.Request.Context(), tenant)
	if err != nil {
		c.respondError(ctx, err, "Error retrieving status")
		return
	}

	status := "ready"
	message := fmt.Sprintf("System ready with %d documents", count)
	if count == 0 {
		status = "no_documents"
		message = "No documents uploaded"
	}
	ctx.JSON(http.StatusOK, models.StatusResponse{
		Status:         status,
		Message:        message,
		DocumentsCount: count,
	})
}

// ListDocuments is the Gin handler for GET /documents.
func (c *RAGController) ListDocuments(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No tenant resolved"})
		return
	}

	docs, err := c.ragService.ListDocuments(ctx.Request.Context(), tenant)
	if err != nil {
		c.respondError(ctx, err, "Error listing documents")
		return
	}
	ctx.JSON(http.StatusOK, models.ListDocumentsResponse{Documents: docs, Count: len(docs)})
}

// ClearDocuments is the Gin handler for DELETE /documents.
func (c *RAGController) ClearDocuments(ctx *gin.Context) {
	tenant, ok := currentTenant(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No tenant resolved"})
		return
	}

	if err := c.ragService.Clear(ctx.Request.Context(), tenant); err != nil {
		c.respondError(ctx, err, "Error clearing documents")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "All documents cleared"})
}

// respondError maps engine errors to HTTP status codes. Caller errors are
// surfaced verbatim; everything else gets a generic message and is logged.
func (c *RAGController) respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrUnsupportedInput):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoDocuments):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No documents available. Please upload documents first."})
	case errors.Is(err, services.ErrBackendTimeout):
		ctx.JSON(http.StatusGatewayTimeout, gin.H{"error": "The language model took too long to respond"})
	default:
		log.Printf("CONTROLLER ERROR: %s: %v", fallback, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
