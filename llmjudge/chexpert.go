package llmjudge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/datar-psa/medeval/api"
)

// CheXpertObservations are the fourteen observations labelled by CheXpert-style
// report labellers.
var CheXpertObservations = []string{
	"Enlarged Cardiomediastinum",
	"Cardiomegaly",
	"Lung Opacity",
	"Lung Lesion",
	"Edema",
	"Consolidation",
	"Pneumonia",
	"Atelectasis",
	"Pneumothorax",
	"Pleural Effusion",
	"Pleural Other",
	"Fracture",
	"Support Devices",
	"No Finding",
}

// Observation labels
const (
	LabelPositive  = "positive"
	LabelNegative  = "negative"
	LabelUncertain = "uncertain"
)

// ObservationLabeler is an api.EntityExtractor that uses an LLM to label the
// CheXpert observations mentioned in a radiology report. Observations that
// the report does not mention are omitted.
type ObservationLabeler struct {
	llm          api.LLMGenerator
	observations []string
}

// NewObservationLabeler creates a labeler over CheXpertObservations.
func NewObservationLabeler(llm api.LLMGenerator) *ObservationLabeler {
	return &ObservationLabeler{llm: llm, observations: CheXpertObservations}
}

const observationPromptTemplate = `You are a radiology report labeller. For each observation below that the report mentions, decide whether it is positive (present), negative (explicitly absent) or uncertain (hedged, possible, cannot be excluded). Omit observations the report does not mention.
Use "No Finding" as positive only when the report describes no abnormality.

[Observations]: %s

[Report]: %s`

// ExtractEntities labels the observations mentioned in text.
func (l *ObservationLabeler) ExtractEntities(ctx context.Context, text string) ([]api.Entity, error) {
	if l.llm == nil {
		return nil, api.ErrProviderRequired
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(observationPromptTemplate, strings.Join(l.observations, ", "), text)
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"observations": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name": map[string]interface{}{
							"type": "string",
							"enum": l.observations,
						},
						"label": map[string]interface{}{
							"type": "string",
							"enum": []string{LabelPositive, LabelNegative, LabelUncertain},
						},
					},
					"required": []string{"name", "label"},
				},
			},
		},
		"required": []string{"observations"},
	}

	resp, err := l.llm.StructuredGenerate(ctx, prompt, schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrLLMGenerationFailed, err)
	}

	raw, ok := resp["observations"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("failed to extract observations from structured response")
	}

	known := make(map[string]bool, len(l.observations))
	for _, o := range l.observations {
		known[o] = true
	}

	// The last label wins when the model repeats an observation.
	labels := make(map[string]string)
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("observation %d is not an object", i)
		}
		name, err := stringField(obj, "name")
		if err != nil {
			return nil, err
		}
		label, err := stringField(obj, "label")
		if err != nil {
			return nil, err
		}
		if !known[name] {
			continue
		}
		switch label {
		case LabelPositive, LabelNegative, LabelUncertain:
		default:
			return nil, fmt.Errorf("invalid label %q for %s", label, name)
		}
		labels[name] = label
	}

	entities := make([]api.Entity, 0, len(labels))
	for name, label := range labels {
		entities = append(entities, api.Entity{Text: name, Label: label})
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Text < entities[j].Text })
	return entities, nil
}
