package models

// StatusResponse reports whether a tenant has documents ready for questions.
// DocumentsCount is the number of distinct uploaded documents, not chunks.
type StatusResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	DocumentsCount int    `json:"documents_count"`
}

// DocumentInfo is one entry of the GET /documents listing: a source document
// and how many chunks were stored for it.
type DocumentInfo struct {
	Source    string `json:"source"`
	Chunks    int    `json:"chunks"`
	Processed bool   `json:"processed"`
}

// ListDocumentsResponse is the body of GET /documents.
type ListDocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string   `json:"status"`
	LLMsAvailable []string `json:"llms_available"`
}
