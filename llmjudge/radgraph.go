package llmjudge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datar-psa/medeval/api"
)

// Fact entity labels
const (
	LabelAnatomy              = "ANAT-DP"
	LabelObservationPresent   = "OBS-DP"
	LabelObservationUncertain = "OBS-U"
	LabelObservationAbsent    = "OBS-DA"
)

// Fact relation types
const (
	RelationModify       = "modify"
	RelationLocatedAt    = "located_at"
	RelationSuggestiveOf = "suggestive_of"
)

// FactGraphExtractor is an api.FactExtractor that asks an LLM for a
// RadGraph-style graph of anatomy and observation entities.
type FactGraphExtractor struct {
	llm api.LLMGenerator
}

// NewFactGraphExtractor creates a FactGraphExtractor
func NewFactGraphExtractor(llm api.LLMGenerator) *FactGraphExtractor {
	return &FactGraphExtractor{llm: llm}
}

const factGraphPromptTemplate = `Annotate the radiology report below as an information-extraction graph.

Entities are short spans copied from the report, labelled:
- ANAT-DP: an anatomical location
- OBS-DP: an observation that is definitely present
- OBS-U: an observation that is uncertain
- OBS-DA: an observation that is definitely absent

Relations connect two entities by ID:
- modify: the source entity modifies the target
- located_at: an observation is located at an anatomy entity
- suggestive_of: an observation suggests another observation

Give every entity a unique ID ("1", "2", ...). Copy spans in lower case.

[Report]: %s`

// ExtractFacts builds the fact graph of text.
func (e *FactGraphExtractor) ExtractFacts(ctx context.Context, text string) (*api.FactGraph, error) {
	if e.llm == nil {
		return nil, api.ErrProviderRequired
	}
	if strings.TrimSpace(text) == "" {
		return &api.FactGraph{}, nil
	}

	prompt := fmt.Sprintf(factGraphPromptTemplate, text)
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"entities": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":     map[string]interface{}{"type": "string"},
						"tokens": map[string]interface{}{"type": "string"},
						"label": map[string]interface{}{
							"type": "string",
							"enum": []string{LabelAnatomy, LabelObservationPresent, LabelObservationUncertain, LabelObservationAbsent},
						},
						"relations": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"type": map[string]interface{}{
										"type": "string",
										"enum": []string{RelationModify, RelationLocatedAt, RelationSuggestiveOf},
									},
									"target": map[string]interface{}{"type": "string"},
								},
								"required": []string{"type", "target"},
							},
						},
					},
					"required": []string{"id", "tokens", "label", "relations"},
				},
			},
		},
		"required": []string{"entities"},
	}

	resp, err := e.llm.StructuredGenerate(ctx, prompt, schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrLLMGenerationFailed, err)
	}

	// Round-trip through JSON to decode the generic response into the typed graph.
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fact graph response: %w", err)
	}
	var graph api.FactGraph
	if err := json.Unmarshal(b, &graph); err != nil {
		return nil, fmt.Errorf("failed to decode fact graph response: %w", err)
	}

	ids := make(map[string]bool, len(graph.Entities))
	for i := range graph.Entities {
		ent := &graph.Entities[i]
		if ent.ID == "" {
			return nil, fmt.Errorf("fact entity %d has no id", i)
		}
		if ids[ent.ID] {
			return nil, fmt.Errorf("duplicate fact entity id %q", ent.ID)
		}
		ids[ent.ID] = true
		ent.Tokens = strings.ToLower(strings.TrimSpace(ent.Tokens))
	}
	// Relations to unknown or self entities are dropped.
	for i := range graph.Entities {
		ent := &graph.Entities[i]
		kept := ent.Relations[:0]
		for _, rel := range ent.Relations {
			if ids[rel.Target] && rel.Target != ent.ID {
				kept = append(kept, rel)
			}
		}
		ent.Relations = kept
	}
	return &graph, nil
}
