// Package openai provides an embedder and a structured-output LLM generator
// for OpenAI-compatible endpoints (OpenAI, vLLM, TEI's /v1 routes).
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/datar-psa/medeval/api"
)

// Config contains configuration for OpenAI-compatible providers.
type Config struct {
	APIKey  string
	BaseURL string // Optional custom base URL
	Model   string
	// Dimensions truncates embeddings when the model supports it
	Dimensions int64
	// Options are appended to the client options, e.g. a custom HTTP client
	Options []option.RequestOption
}

func newClient(cfg Config) openai.Client {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)
	return openai.NewClient(opts...)
}

// Embedder implements api.Embedder using the embeddings endpoint.
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int64
}

var _ api.Embedder = (*Embedder)(nil)

// NewEmbedder creates a new embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	return &Embedder{
		client:     newClient(cfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(e.dimensions)
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// Generator implements api.LLMGenerator with JSON schema response formats.
type Generator struct {
	client openai.Client
	model  string
}

var _ api.LLMGenerator = (*Generator)(nil)

// NewGenerator creates a new generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &Generator{client: newClient(cfg), model: cfg.Model}, nil
}

// StructuredGenerate asks the model for a JSON object matching schema.
func (g *Generator) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "response",
					Schema: schema,
				},
			},
		},
		Temperature: openai.Float(0),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no response content")
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse structured response: %w", err)
	}
	return result, nil
}
