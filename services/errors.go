package services

import "errors"

// Sentinel errors for the answering engine. Callers discriminate with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrUnsupportedInput marks caller errors: an unsupported file type or
	// an empty chunk set handed to ingestion.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrNoDocuments means a question was asked before the tenant uploaded
	// any documents. Recoverable by ingesting first.
	ErrNoDocuments = errors.New("no documents available")

	// ErrNoBackendAvailable means no generation backend could be built from
	// the configured credentials. Fatal at startup.
	ErrNoBackendAvailable = errors.New("no LLM backend available")

	// ErrBackendTimeout means the generation call exceeded its bound.
	ErrBackendTimeout = errors.New("LLM backend timed out")
)
