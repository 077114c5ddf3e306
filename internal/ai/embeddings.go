package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// EmbeddingService turns any JSON-serializable value into a fixed-length
// vector. The genai client is shared with the rest of the process and
// injected at construction.
type EmbeddingService struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewEmbeddingService builds the embedder. dimensions is the vector length
// the rest of the system is configured for; 0 disables the check.
func NewEmbeddingService(client *genai.Client, model string, dimensions int) *EmbeddingService {
	return &EmbeddingService{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}
}

// Embed serializes value canonically and returns its embedding vector.
// Upstream model errors propagate unmodified; retries are the caller's
// concern.
func (s *EmbeddingService) Embed(ctx context.Context, value any) ([]float32, error) {
	text, err := CanonicalText(value)
	if err != nil {
		return nil, err
	}

	model := s.client.EmbeddingModel(s.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	if err := checkDimensions(resp.Embedding.Values, s.dimensions); err != nil {
		return nil, err
	}

	return resp.Embedding.Values, nil
}

// checkDimensions fails fast on a model/config mismatch instead of letting
// a wrong-length vector reach storage, where search would silently skip it.
func checkDimensions(values []float32, want int) error {
	if want > 0 && len(values) != want {
		return fmt.Errorf("embedding dimension mismatch: model returned %d values, configured for %d", len(values), want)
	}
	return nil
}

// CanonicalText serializes value with deterministic key order so that two
// logically identical records always embed to the same vector. Plain strings
// (free-text queries) pass through untouched.
func CanonicalText(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to serialize embedding input: %w", err)
	}

	// Round-trip through a generic value: encoding/json emits map keys in
	// sorted order, which gives us the canonical form.
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}

	return string(canonical), nil
}
