package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/medeval/api"
)

func TestReadability_Names(t *testing.T) {
	for _, index := range []ReadabilityIndex{FleschKincaidGrade, DaleChall, ColemanLiau} {
		result := Readability(index).Score(context.Background(), api.ScoreInputs{Output: "The cat sat on the mat."})
		require.NoError(t, result.Error)
		assert.Equal(t, string(index), result.Name)
	}
}

func TestReadability_EmptyOutput(t *testing.T) {
	for _, index := range []ReadabilityIndex{FleschKincaidGrade, DaleChall, ColemanLiau} {
		result := Readability(index).Score(context.Background(), api.ScoreInputs{Output: "  \n"})
		require.NoError(t, result.Error)
		assert.Equal(t, 0.0, result.Score)
	}
}

func TestReadability_HarderTextScoresHigher(t *testing.T) {
	simple := "The dog ran. The cat sat. We had fun."
	hard := "Immunohistochemical characterization demonstrated heterogeneous transcriptional dysregulation within hyperproliferative epithelial compartments, substantiating mechanistic hypotheses regarding oncogenic transformation."

	for _, index := range []ReadabilityIndex{FleschKincaidGrade, ColemanLiau, DaleChall} {
		easy := Readability(index).Score(context.Background(), api.ScoreInputs{Output: simple})
		difficult := Readability(index).Score(context.Background(), api.ScoreInputs{Output: hard})
		require.NoError(t, easy.Error)
		require.NoError(t, difficult.Error)
		assert.Greater(t, difficult.Score, easy.Score, string(index))
	}
}

func TestReadability_UnknownIndex(t *testing.T) {
	result := Readability("SMOG").Score(context.Background(), api.ScoreInputs{Output: "Some text here."})
	assert.Error(t, result.Error)
}
