package gemini

import (
	"context"
	"fmt"

	"github.com/datar-psa/medeval/api"
	"google.golang.org/genai"
)

// TaskSemanticSimilarity is the embedding task type used for report similarity
const TaskSemanticSimilarity = "SEMANTIC_SIMILARITY"

// Embedder wraps a genai.Client to implement the Embedder interface
type Embedder struct {
	client     *genai.Client
	modelName  string
	taskType   string
	dimensions int32
}

// EmbedderOption configures an Embedder
type EmbedderOption func(*Embedder)

// WithTaskType overrides the embedding task type (default SEMANTIC_SIMILARITY)
func WithTaskType(taskType string) EmbedderOption {
	return func(e *Embedder) {
		e.taskType = taskType
	}
}

// WithDimensions truncates embeddings to n dimensions
func WithDimensions(n int32) EmbedderOption {
	return func(e *Embedder) {
		e.dimensions = n
	}
}

// NewEmbedder creates a new Gemini embedder
// client: genai.Client from google.golang.org/genai
// modelName: the embedding model to use (e.g., "text-embedding-005")
func NewEmbedder(client *genai.Client, modelName string, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		client:    client,
		modelName: modelName,
		taskType:  TaskSemanticSimilarity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed implements Embedder.Embed
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: text},
			},
		},
	}

	config := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		config.OutputDimensionality = genai.Ptr(e.dimensions)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	if len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding vector")
	}

	values := result.Embeddings[0].Values
	embedding := make([]float64, len(values))
	for i, v := range values {
		embedding[i] = float64(v)
	}

	return embedding, nil
}

// Verify that Embedder implements api.Embedder
var _ api.Embedder = (*Embedder)(nil)
