package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/askdocs/server/models"
)

// answerPromptTemplate is the fixed instruction template for every backend.
// The "Nothing relevant found." wording must match models.AnswerNothingRelevant
// so that a model following instructions produces the same sentinel the
// engine uses for empty context.
const answerPromptTemplate = `You are a helpful AI assistant that answers questions based on the provided context.

Context from documents:
%s

Question: %s

Instructions:
1. Answer the question based ONLY on the information provided in the context above.
2. If the context doesn't contain relevant information to answer the question, respond with "Nothing relevant found."
3. Be concise but comprehensive in your answer.
4. If you reference specific information, indicate which part of the context it comes from.

Answer:`

// AnswerSynthesizer assembles a context+question prompt, invokes a randomly
// selected backend and normalizes the output into an AnswerResult.
type AnswerSynthesizer struct {
	llms    *LLMManager
	timeout time.Duration
}

// NewAnswerSynthesizer creates a synthesizer. timeout bounds each generation
// call; it is the highest-latency, least-predictable dependency.
func NewAnswerSynthesizer(llms *LLMManager, timeout time.Duration) *AnswerSynthesizer {
	return &AnswerSynthesizer{llms: llms, timeout: timeout}
}

// Synthesize answers the question from the given context chunks. With no
// chunks it returns the sentinel result without any model call. Generation
// failures propagate un-retried; a timeout surfaces as ErrBackendTimeout.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, chunks []models.Chunk, sources []string, question string) (*models.AnswerResult, error) {
	if len(chunks) == 0 {
		return models.NothingRelevantResult(), nil
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	prompt := fmt.Sprintf(answerPromptTemplate, strings.Join(texts, "\n\n"), question)

	backend, name, err := s.llms.PickRandom()
	if err != nil {
		return nil, err
	}
	log.Printf("SYNTH: Generating answer with backend %q (%d context chunks)", name, len(chunks))

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := backend.Invoke(genCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: backend %q exceeded %s", ErrBackendTimeout, name, s.timeout)
		}
		return nil, fmt.Errorf("backend %q invocation failed: %w", name, err)
	}

	if sources == nil {
		sources = []string{}
	}
	return &models.AnswerResult{
		Answer:      answer,
		Sources:     sources,
		BackendUsed: name,
	}, nil
}
