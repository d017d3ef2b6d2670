package models

// OllamaEmbedRequest is the request body for Ollama's /api/embeddings
// endpoint. Prompt carries the text to embed.
type OllamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbedResponse holds the vector Ollama returns for one prompt.
type OllamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}
