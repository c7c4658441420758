package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"

	"github.com/datar-psa/medeval/api"
)

// Generator wraps a genai.Client to implement the LLMGenerator interface
type Generator struct {
	client      *genai.Client
	modelName   string
	temperature *float32
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) GeneratorOption {
	return func(g *Generator) {
		g.temperature = genai.Ptr(t)
	}
}

// NewGenerator creates a new Gemini generator
// client: genai.Client from google.golang.org/genai
// modelName: the model to use (e.g., "gemini-2.5-flash")
func NewGenerator(client *genai.Client, modelName string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:    client,
		modelName: modelName,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// StructuredGenerate implements LLMGenerator.StructuredGenerate using
// Gemini's native JSON schema output.
func (g *Generator) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	content := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema,
		Temperature:        g.temperature,
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.modelName,
		[]*genai.Content{content},
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}

	if resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no parts in response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(text.String()), &result); err != nil {
		return nil, fmt.Errorf("failed to parse structured response: %w", err)
	}
	if err := validateResponse(schema, result); err != nil {
		return nil, err
	}
	return result, nil
}

var schemaCache sync.Map

// validateResponse checks a decoded response against the requested schema.
func validateResponse(schema map[string]interface{}, resp map[string]interface{}) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode response schema: %w", err)
	}

	key := string(raw)
	compiled, ok := schemaCache.Load(key)
	if !ok {
		c, err := jsonschema.CompileString("response.schema.json", key)
		if err != nil {
			return fmt.Errorf("compile response schema: %w", err)
		}
		compiled, _ = schemaCache.LoadOrStore(key, c)
	}

	if err := compiled.(*jsonschema.Schema).Validate(resp); err != nil {
		return fmt.Errorf("structured response does not match schema: %w", err)
	}
	return nil
}

// Verify that Generator implements LLMGenerator
var _ api.LLMGenerator = (*Generator)(nil)
