package models

// AnswerNothingRelevant is the fixed reply used when retrieval produces no
// usable context, or when the model decides the context is insufficient.
const AnswerNothingRelevant = "Nothing relevant found."

// BackendNone is the sentinel backend name reported when no model was invoked.
const BackendNone = "none"

// Chunk is a bounded span of source-document text plus provenance metadata.
// Chunks are produced by the document processor and are immutable once stored.
type Chunk struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Source returns the originating document name recorded in the chunk
// metadata, or "Unknown" when the metadata carries no source.
func (c Chunk) Source() string {
	if c.Metadata != nil {
		if s, ok := c.Metadata["source"].(string); ok && s != "" {
			return s
		}
	}
	return "Unknown"
}

// ScoredChunk pairs a chunk with its dissimilarity score from a similarity
// query. Lower distance means more relevant. Scored chunks are transient;
// they are never persisted.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// AnswerResult is the uniform answer contract returned by the engine.
// BackendUsed is BackendNone when no model call was made.
type AnswerResult struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	BackendUsed string   `json:"llm_used"`
}

// NothingRelevantResult builds the sentinel result returned when there is no
// relevant context to answer from.
func NothingRelevantResult() *AnswerResult {
	return &AnswerResult{
		Answer:      AnswerNothingRelevant,
		Sources:     []string{},
		BackendUsed: BackendNone,
	}
}
