package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/medeval/api"
)

func TestMeteor(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		expected  string
		wantScore float64
		wantErr   error
	}{
		{
			name:      "identical text has only the fragmentation penalty",
			output:    "the cat sat on the mat",
			expected:  "the cat sat on the mat",
			wantScore: 1 - 0.5/216.0,
		},
		{
			name:      "no overlap",
			output:    "alpha beta",
			expected:  "gamma delta",
			wantScore: 0,
		},
		{
			name:      "no expected value",
			output:    "text",
			expected:  "",
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Meteor(MeteorOptions{}).Score(context.Background(), api.ScoreInputs{Output: tt.output, Expected: tt.expected})
			assert.Equal(t, "METEOR", result.Name)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, result.Error)
				return
			}
			require.NoError(t, result.Error)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-12)
		})
	}
}

func TestMeteor_StemMatch(t *testing.T) {
	exact := Meteor(MeteorOptions{}).Score(context.Background(), api.ScoreInputs{Output: "opacities seen", Expected: "opacity seen"})
	require.NoError(t, exact.Error)
	assert.Equal(t, 2, exact.Metadata["matches"])
}

func TestCountChunks(t *testing.T) {
	assert.Equal(t, 1, countChunks([]wordMatch{{0, 0}, {1, 1}, {2, 2}}))
	assert.Equal(t, 2, countChunks([]wordMatch{{0, 0}, {1, 2}}))
	assert.Equal(t, 3, countChunks([]wordMatch{{0, 2}, {1, 1}, {2, 0}}))
}
