package services

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/askdocs/server/models"
)

// DocumentProcessor loads files, extracts their text and splits it into
// chunks ready for ingestion. The supported source types are an enumerable
// set owned by this processor; anything else is rejected before reaching
// the engine.
type DocumentProcessor struct {
	chunkSize    int
	chunkOverlap int
}

// NewDocumentProcessor creates a processor with the given chunking settings.
func NewDocumentProcessor(chunkSize, chunkOverlap int) *DocumentProcessor {
	return &DocumentProcessor{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// IsSupported reports whether the file type can be processed.
func (p *DocumentProcessor) IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".pdf", ".docx":
		return true
	default:
		return false
	}
}

// Process extracts and chunks every file, stamping each chunk with its
// originating filename as metadata.source. Any failing file aborts the
// whole batch.
func (p *DocumentProcessor) Process(paths []string) ([]models.Chunk, error) {
	var all []models.Chunk
	for _, path := range paths {
		chunks, err := p.processFile(path)
		if err != nil {
			return nil, fmt.Errorf("error processing %s: %w", path, err)
		}
		all = append(all, chunks...)
	}
	return all, nil
}

func (p *DocumentProcessor) processFile(path string) ([]models.Chunk, error) {
	if !p.IsSupported(path) {
		return nil, fmt.Errorf("%w: file type %s", ErrUnsupportedInput, filepath.Ext(path))
	}

	text, err := ExtractTextFromFile(path)
	if err != nil {
		return nil, err
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	source := filepath.Base(path)
	chunks := make([]models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text: piece,
			Metadata: map[string]interface{}{
				"source":    source,
				"file_path": path,
				"chunk_num": i,
			},
		})
	}
	log.Printf("PROCESSOR: Processed %s: %d chunks", path, len(chunks))
	return chunks, nil
}
