package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/medeval/api"
)

func TestScorer_ScoreCorpus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/score/summac", r.URL.Path)

		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"p1", "p2"}, req.Predictions)
		assert.Equal(t, []string{"r1", "r2"}, req.References)
		assert.Equal(t, []string{"d1", "d2"}, req.Documents)

		_, _ = w.Write([]byte(`{"scores": [
			{"name": "extra", "score": 3},
			{"name": "SummaC", "score": 0.42, "metadata": {"model": "vitc"}}
		]}`))
	}))
	defer srv.Close()

	scorer := NewScorer(srv.URL, "summac", Options{Keys: []string{"SummaC"}})
	scores := scorer.ScoreCorpus(context.Background(), api.CorpusInputs{
		Predictions: []string{"p1", "p2"},
		References:  []string{"r1", "r2"},
		Documents:   []string{"d1", "d2"},
	})

	require.Len(t, scores, 1)
	require.NoError(t, scores[0].Error)
	assert.Equal(t, "SummaC", scores[0].Name)
	assert.InDelta(t, 0.42, scores[0].Score, 1e-12)
	assert.Equal(t, "vitc", scores[0].Metadata["model"])
	assert.Equal(t, 2, scores[0].Metadata["items"])
}

func TestScorer_MultipleKeysInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"scores": [{"name": "CLI", "score": 12}, {"name": "FKGL", "score": 10}]}`))
	}))
	defer srv.Close()

	scores := NewScorer(srv.URL, "readability", Options{Keys: []string{"FKGL", "CLI"}}).ScoreCorpus(context.Background(), api.CorpusInputs{
		Predictions: []string{"p"},
		References:  []string{"r"},
	})

	require.Len(t, scores, 2)
	assert.Equal(t, "FKGL", scores[0].Name)
	assert.Equal(t, 10.0, scores[0].Score)
	assert.Equal(t, "CLI", scores[1].Name)
	assert.Equal(t, 12.0, scores[1].Score)
}

func TestScorer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		corpus  api.CorpusInputs
		wantErr error
	}{
		{
			name:    "empty corpus",
			corpus:  api.CorpusInputs{},
			wantErr: api.ErrEmptyCorpus,
		},
		{
			name:   "missing key",
			status: http.StatusOK,
			body:   `{"scores": [{"name": "other", "score": 1}]}`,
			corpus: api.CorpusInputs{Predictions: []string{"p"}, References: []string{"r"}},
		},
		{
			name:   "null score",
			status: http.StatusOK,
			body:   `{"scores": [{"name": "radgraph", "score": null}]}`,
			corpus: api.CorpusInputs{Predictions: []string{"p"}, References: []string{"r"}},
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"detail": "documents required"}`,
			corpus: api.CorpusInputs{Predictions: []string{"p"}, References: []string{"r"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			scores := NewScorer(srv.URL, "radgraph", Options{}).ScoreCorpus(context.Background(), tt.corpus)
			require.Len(t, scores, 1)
			require.Error(t, scores[0].Error)
			assert.Equal(t, "radgraph", scores[0].Name)
			if tt.wantErr != nil {
				assert.ErrorIs(t, scores[0].Error, tt.wantErr)
			}
		})
	}
}
