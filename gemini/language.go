package gemini

import (
	"context"
	"fmt"
	"sort"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	languagepb "cloud.google.com/go/language/apiv1/languagepb"
	"github.com/datar-psa/medeval/api"
)

// LanguageEntityExtractor implements api.EntityExtractor using the Google Cloud
// Natural Language AnalyzeEntities API.
type LanguageEntityExtractor struct {
	client   *language.Client
	minScore float64
}

// NewLanguageEntityExtractor creates an extractor using a preconfigured *language.Client (auth handled by caller).
// Entities with salience below minSalience are dropped.
func NewLanguageEntityExtractor(client *language.Client, minSalience float64) *LanguageEntityExtractor {
	return &LanguageEntityExtractor{client: client, minScore: minSalience}
}

// ExtractEntities analyzes text and returns one entity per distinct normalized name
func (p *LanguageEntityExtractor) ExtractEntities(ctx context.Context, text string) ([]api.Entity, error) {
	if p.client == nil {
		return nil, fmt.Errorf("language client is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	req := &languagepb.AnalyzeEntitiesRequest{
		Document: &languagepb.Document{
			Type: languagepb.Document_PLAIN_TEXT,
			Source: &languagepb.Document_Content{
				Content: text,
			},
		},
		EncodingType: languagepb.EncodingType_UTF8,
	}

	resp, err := p.client.AnalyzeEntities(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze entities failed: %w", err)
	}

	return entitiesFromResponse(resp.GetEntities(), p.minScore), nil
}

func entitiesFromResponse(entities []*languagepb.Entity, minSalience float64) []api.Entity {
	seen := make(map[string]bool, len(entities))
	out := make([]api.Entity, 0, len(entities))
	for _, e := range entities {
		if float64(e.GetSalience()) < minSalience {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(e.GetName()))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, api.Entity{
			Text:  name,
			Label: mapEntityType(e.GetType()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

// mapEntityType maps Natural Language entity types to lower-case labels
func mapEntityType(t languagepb.Entity_Type) string {
	switch t {
	case languagepb.Entity_PERSON:
		return "person"
	case languagepb.Entity_LOCATION:
		return "location"
	case languagepb.Entity_ORGANIZATION:
		return "organization"
	case languagepb.Entity_EVENT:
		return "event"
	case languagepb.Entity_CONSUMER_GOOD:
		return "consumer_good"
	case languagepb.Entity_NUMBER:
		return "number"
	case languagepb.Entity_OTHER:
		return "other"
	default:
		return strings.ToLower(t.String())
	}
}

// Verify that LanguageEntityExtractor implements api.EntityExtractor
var _ api.EntityExtractor = (*LanguageEntityExtractor)(nil)
