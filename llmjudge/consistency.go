package llmjudge

import (
	"context"
	"fmt"
	"strings"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/internal/sentence"
)

// ConsistencyOptions configures the Consistency scorer
type ConsistencyOptions struct {
	// MaxDocumentChars truncates the source document in the prompt; 0 keeps it whole
	MaxDocumentChars int
}

// Consistency returns a scorer that splits Output into sentences, asks the LLM
// for the probability that the document in Input entails each of them and
// reports the mean.
func Consistency(llm api.LLMGenerator, opts ConsistencyOptions) api.Scorer {
	return &consistencyScorer{
		opts: opts,
		llm:  llm,
	}
}

type consistencyScorer struct {
	opts ConsistencyOptions
	llm  api.LLMGenerator
}

const consistencyPromptTemplate = `You are a natural language inference model. For each numbered hypothesis sentence, estimate the probability in [0, 1] that it is entailed by the premise document.

[BEGIN DATA]
************
[Premise]: %s
************
[Hypotheses]:
%s
************
[END DATA]

Return one entailment probability per hypothesis, in the order given.`

func (s *consistencyScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "SummaC",
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

	sentences, err := sentence.Split(in.Output)
	if err != nil {
		result.Error = fmt.Errorf("failed to split output into sentences: %w", err)
		return result
	}
	result.Metadata["sentences"] = len(sentences)
	if len(sentences) == 0 {
		return result
	}

	document, truncated := truncateChars(in.Input, s.opts.MaxDocumentChars)
	if truncated {
		result.Metadata["document_truncated"] = true
	}

	var hypotheses strings.Builder
	for i, sent := range sentences {
		fmt.Fprintf(&hypotheses, "%d. %s\n", i+1, sent)
	}

	prompt := fmt.Sprintf(consistencyPromptTemplate, document, hypotheses.String())
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"entailment": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type":    "number",
					"minimum": 0,
					"maximum": 1,
				},
			},
		},
		"required": []string{"entailment"},
	}

	resp, err := s.llm.StructuredGenerate(ctx, prompt, schema)
	if err != nil {
		result.Error = fmt.Errorf("%w: %v", api.ErrLLMGenerationFailed, err)
		return result
	}
	result.Metadata["raw_response"] = resp

	raw, ok := resp["entailment"].([]interface{})
	if !ok {
		result.Error = fmt.Errorf("failed to extract entailment from structured response")
		return result
	}
	if len(raw) != len(sentences) {
		result.Error = fmt.Errorf("expected %d entailment probabilities, got %d", len(sentences), len(raw))
		return result
	}

	probs := make([]float64, len(raw))
	var sum float64
	for i, v := range raw {
		p, ok := v.(float64)
		if !ok {
			result.Error = fmt.Errorf("entailment %d is not a number", i+1)
			return result
		}
		probs[i] = clamp(p, 0, 1)
		sum += probs[i]
	}

	result.Score = sum / float64(len(probs))
	result.Metadata["sentence_scores"] = probs
	return result
}
