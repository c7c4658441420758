package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEmbedder_Options(t *testing.T) {
	e := NewEmbedder(nil, "text-embedding-005")
	assert.Equal(t, TaskSemanticSimilarity, e.taskType)
	assert.Zero(t, e.dimensions)

	e = NewEmbedder(nil, "text-embedding-005", WithTaskType("RETRIEVAL_DOCUMENT"), WithDimensions(256))
	assert.Equal(t, "RETRIEVAL_DOCUMENT", e.taskType)
	assert.Equal(t, int32(256), e.dimensions)
}
