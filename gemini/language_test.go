package gemini

import (
	"context"
	"testing"

	languagepb "cloud.google.com/go/language/apiv1/languagepb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/medeval/api"
)

func TestEntitiesFromResponse(t *testing.T) {
	entities := []*languagepb.Entity{
		{Name: "Pleural effusion", Type: languagepb.Entity_OTHER, Salience: 0.6},
		{Name: "pleural effusion", Type: languagepb.Entity_OTHER, Salience: 0.2},
		{Name: "Lung", Type: languagepb.Entity_LOCATION, Salience: 0.3},
		{Name: "today", Type: languagepb.Entity_DATE, Salience: 0.01},
		{Name: "  ", Type: languagepb.Entity_OTHER, Salience: 0.5},
	}

	got := entitiesFromResponse(entities, 0.05)
	assert.Equal(t, []api.Entity{
		{Text: "lung", Label: "location"},
		{Text: "pleural effusion", Label: "other"},
	}, got)
}

func TestMapEntityType(t *testing.T) {
	assert.Equal(t, "person", mapEntityType(languagepb.Entity_PERSON))
	assert.Equal(t, "date", mapEntityType(languagepb.Entity_DATE))
}

func TestLanguageEntityExtractor_NoClient(t *testing.T) {
	_, err := NewLanguageEntityExtractor(nil, 0).ExtractEntities(context.Background(), "text")
	require.Error(t, err)
}
