package llmjudge

import (
	"context"
	"fmt"

	"github.com/datar-psa/medeval/api"
)

// PlausibilityOptions configures the Plausibility scorer
type PlausibilityOptions struct{}

// Plausibility returns a scorer that rates, on a 0-100 scale, how good Output
// is as a lay summary of the article whose abstract is the first line of
// Input, given the reference lay summary in Expected.
func Plausibility(llm api.LLMGenerator, opts PlausibilityOptions) api.Scorer {
	return &plausibilityScorer{
		opts: opts,
		llm:  llm,
	}
}

type plausibilityScorer struct {
	opts PlausibilityOptions
	llm  api.LLMGenerator
}

const plausibilityPromptTemplate = `You are rating a plain-language summary of a biomedical article written for non-expert readers.

[BEGIN DATA]
************
[Abstract]: %s
************
[Reference lay summary]: %s
************
[Candidate lay summary]: %s
************
[END DATA]

Rate the candidate from 0 to 100. Reward summaries that a lay reader could follow, that keep the key findings of the abstract, and that are as useful as the reference. Penalise jargon, missing background and statements the abstract does not support.`

func (s *plausibilityScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "LENS",
		Metadata: make(map[string]any),
	}

	if in.Input == "" {
		result.Error = api.ErrNoDocument
		return result
	}

	if s.llm == nil {
		result.Error = fmt.Errorf("%w: LLM generator is required", api.ErrProviderRequired)
		return result
	}

	reference := in.Expected
	if reference == "" {
		result.Metadata["empty_expected"] = true
		reference = "(no reference summary)"
	}
	prompt := fmt.Sprintf(plausibilityPromptTemplate, Abstract(in.Input), reference, in.Output)
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"explanation": map[string]interface{}{
				"type":        "string",
				"description": "Brief justification of the rating",
			},
			"rating": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
				"maximum": 100,
			},
		},
		"required": []string{"explanation", "rating"},
	}

	resp, err := s.llm.StructuredGenerate(ctx, prompt, schema)
	if err != nil {
		result.Error = fmt.Errorf("%w: %v", api.ErrLLMGenerationFailed, err)
		return result
	}
	result.Metadata["raw_response"] = resp

	rating, err := numberField(resp, "rating")
	if err != nil {
		result.Error = err
		return result
	}
	if explanation, err := stringField(resp, "explanation"); err == nil {
		result.Metadata["explanation"] = explanation
	}

	result.Score = clamp(rating, 0, 100)
	return result
}
