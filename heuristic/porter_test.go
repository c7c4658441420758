package heuristic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStem(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "irregular forms",
			in:   "skies dying lying tying innings outings cannings",
			want: []string{"sky", "die", "lie", "tie", "inning", "outing", "canning"},
		},
		{
			name: "ied and ies endings",
			in:   "dies died spied enjoy",
			want: []string{"die", "die", "spi", "enjoy"},
		},
		{
			name: "plural and progressive",
			in:   "the friends had a meeting",
			want: []string{"the", "friend", "had", "a", "meet"},
		},
		{
			name: "y to i keeps the adverb distinct",
			in:   "fairly generously",
			want: []string{"fairli", "gener"},
		},
		{
			name: "radiology vocabulary",
			in:   "opacities opacity effusions consolidation hopping hoped",
			want: []string{"opac", "opac", "effus", "consolid", "hop", "hope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, w := range strings.Fields(tt.in) {
				got = append(got, stem(w))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStem_NonASCIIUntouched(t *testing.T) {
	assert.Equal(t, "rönt", stem("Rönt"))
}

func TestRougeTokens_StemsLongTokens(t *testing.T) {
	assert.Equal(t, []string{"the", "result", "were", "fairli"}, rougeTokens("The results were fairly", true))
	assert.Equal(t, []string{"the", "results", "were", "fairly"}, rougeTokens("The results were fairly", false))
}

func TestComputeRouge_StemmerMatchesReference(t *testing.T) {
	scores, err := ComputeRouge("the result was fair", "the result was fairly", []string{"rouge1"}, true, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, scores["rouge1"].FMeasure, 1e-12)
}
