package llmjudge

import (
	"context"
	"fmt"

	"github.com/datar-psa/medeval/api"
)

// AlignmentOptions configures the Alignment scorer
type AlignmentOptions struct {
	// MaxDocumentChars truncates the source document in the prompt; 0 keeps it whole
	MaxDocumentChars int
}

// Alignment returns a scorer that uses an LLM to judge how well the claims of
// Output are supported by the source document in Input.
// The verdict uses an A-E scale mapped to [0,1].
func Alignment(llm api.LLMGenerator, opts AlignmentOptions) api.Scorer {
	return &alignmentScorer{
		opts: opts,
		llm:  llm,
	}
}

type alignmentScorer struct {
	opts AlignmentOptions
	llm  api.LLMGenerator
}

const alignmentPromptTemplate = `You are checking whether a summary is factually aligned with the source document it was written from.

[BEGIN DATA]
************
[Document]: %s
************
[Summary]: %s
************
[END DATA]

Treat every statement of the summary as a claim. Ignore style, simplification and omissions; judge only whether the claims are supported by the document.
Select one option:
(A) Every claim is supported by the document.
(B) Nearly every claim is supported; one minor detail is unsupported.
(C) Some claims are supported and some are not.
(D) Most claims are unsupported by the document.
(E) The summary contradicts the document.`

func (s *alignmentScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "AlignScore",
		Metadata: make(map[string]any),
	}

	if in.Input == "" {
		result.Error = api.ErrNoDocument
		result.Score = 0
		return result
	}

	if s.llm == nil {
		result.Error = fmt.Errorf("%w: LLM generator is required", api.ErrProviderRequired)
		result.Score = 0
		return result
	}

	document, truncated := truncateChars(in.Input, s.opts.MaxDocumentChars)
	if truncated {
		result.Metadata["document_truncated"] = true
	}

	prompt := fmt.Sprintf(alignmentPromptTemplate, document, in.Output)
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"explanation": map[string]interface{}{
				"type":        "string",
				"description": "Which claims are supported or unsupported, in at most three sentences",
			},
			"choice": map[string]interface{}{
				"type": "string",
				"enum": choiceEnum,
			},
		},
		"required": []string{"explanation", "choice"},
	}

	resp, err := s.llm.StructuredGenerate(ctx, prompt, schema)
	if err != nil {
		result.Error = fmt.Errorf("%w: %v", api.ErrLLMGenerationFailed, err)
		result.Score = 0
		return result
	}
	result.Metadata["raw_response"] = resp

	choice, err := stringField(resp, "choice")
	if err != nil {
		result.Error = err
		return result
	}
	explanation, err := stringField(resp, "explanation")
	if err != nil {
		result.Error = err
		return result
	}
	score, ok := choiceScores[choice]
	if !ok {
		result.Error = fmt.Errorf("invalid choice %q", choice)
		return result
	}

	result.Score = score
	result.Metadata["choice"] = choice
	result.Metadata["explanation"] = explanation
	return result
}
