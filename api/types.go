package api

import "context"

// LLMGenerator is an interface for generating text using an LLM
// This interface must be implemented by library consumers
// A Gemini implementation is provided in the gemini subpackage
type LLMGenerator interface {
	// StructuredGenerate generates structured data based on the provided prompt and JSON schema
	// schema must be a valid JSON schema (map[string]interface{})
	// Returns the generated data as a map[string]interface{} or an error
	StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error)
}

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)
}

// TokenEmbedder generates one contextual embedding per token of a text.
// Special tokens (CLS/SEP and similar) must already be stripped.
type TokenEmbedder interface {
	EmbedTokens(ctx context.Context, text string) ([][]float64, error)
}

// Entity is a clinical finding or concept mentioned in a text.
type Entity struct {
	// Text is the normalized surface form, used as the identity of the entity
	Text string `json:"text"`
	// Label qualifies the entity, e.g. "positive", "negative", "uncertain"
	Label string `json:"label"`
}

// EntityExtractor extracts clinical entities from free text.
// Implementations are provided in the gemini (Cloud Natural Language) and llmjudge packages.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
}

// FactRelation links a fact entity to another entity of the same graph.
type FactRelation struct {
	// Type is one of "modify", "located_at", "suggestive_of"
	Type string `json:"type"`
	// Target is the ID of the related entity
	Target string `json:"target"`
}

// FactEntity is a node of a radiology fact graph.
type FactEntity struct {
	ID string `json:"id"`
	// Tokens is the span text of the entity
	Tokens string `json:"tokens"`
	// Label is one of "ANAT-DP", "OBS-DP", "OBS-U", "OBS-DA"
	Label     string         `json:"label"`
	Relations []FactRelation `json:"relations"`
}

// FactGraph is the structured fact extraction of one report.
type FactGraph struct {
	Entities []FactEntity `json:"entities"`
}

// FactExtractor extracts a fact graph from a radiology report.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, text string) (*FactGraph, error)
}

// Score represents the result of an evaluation
type Score struct {
	// Name identifies the scorer that produced this result
	Name string
	// Score is the metric value. Most scorers report in [0, 1]; corpus
	// metrics inherited from established tools keep their native scale
	// (BLEU and LENS use [0, 100], readability indices are unbounded).
	Score float64
	// Metadata contains additional information about the scoring process
	Metadata map[string]any
	// Error contains any error that occurred during scoring
	Error error
}

// ScoreInputs carries inputs for scoring across different scorers.
//
// Fields usage conventions:
// - Output:   the generated text produced by the model (required for all scorers)
// - Expected: the reference text (optional depending on scorer)
// - Input:    the source document the output was generated from (optional)
type ScoreInputs struct {
	Output   string
	Expected string
	Input    string
}

// Scorer evaluates the quality of an output
type Scorer interface {
	// Score evaluates the output and returns a score
	// in: container for output/expected/input depending on scorer needs
	Score(ctx context.Context, in ScoreInputs) Score
}
