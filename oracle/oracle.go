// Package oracle scores corpora on a model-server sidecar that hosts the
// reference scoring checkpoints (LENS, AlignScore, SummaC, RadGraph,
// CheXbert, BERTScore and others).
//
// The sidecar accepts POST <base>/score/<metric> with
//
//	{"predictions": [...], "references": [...], "documents": [...]}
//
// and answers with an ordered list of scores:
//
//	{"scores": [{"name": "radgraph", "score": 0.31, "metadata": {...}}]}
package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/internal/httpjson"
)

// Options configures a sidecar scorer
type Options struct {
	// HTTPClient overrides the default client (60s timeout)
	HTTPClient *http.Client
	// MaxRetries bounds retries of transient failures
	MaxRetries uint64
	// Keys lists the score names the sidecar must return, in report order.
	// Defaults to the metric name.
	Keys []string
}

// Scorer is an api.CorpusScorer backed by the sidecar
type Scorer struct {
	metric string
	keys   []string
	conn   httpjson.Client
}

// NewScorer creates a scorer for metric on the sidecar at baseURL
func NewScorer(baseURL, metric string, opts Options) *Scorer {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	keys := opts.Keys
	if len(keys) == 0 {
		keys = []string{metric}
	}
	return &Scorer{
		metric: metric,
		keys:   keys,
		conn: httpjson.Client{
			BaseURL:    baseURL,
			HTTPClient: httpClient,
			MaxRetries: opts.MaxRetries,
			Service:    "oracle",
		},
	}
}

type scoreRequest struct {
	Predictions []string `json:"predictions"`
	References  []string `json:"references"`
	Documents   []string `json:"documents,omitempty"`
}

type scoreEntry struct {
	Name     string         `json:"name"`
	Score    *float64       `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type scoreResponse struct {
	Scores []scoreEntry `json:"scores"`
}

// ScoreCorpus posts the corpus and returns the requested keys in order
func (s *Scorer) ScoreCorpus(ctx context.Context, in api.CorpusInputs) []api.Score {
	fail := func(err error) []api.Score {
		return []api.Score{{Name: s.keys[0], Metadata: map[string]any{"metric": s.metric}, Error: err}}
	}

	if err := in.Validate(); err != nil {
		return fail(err)
	}

	var resp scoreResponse
	req := scoreRequest{
		Predictions: in.Predictions,
		References:  in.References,
		Documents:   in.Documents,
	}
	if err := s.conn.Post(ctx, "/score/"+url.PathEscape(s.metric), req, &resp); err != nil {
		return fail(fmt.Errorf("score %s: %w", s.metric, err))
	}

	byName := make(map[string]scoreEntry, len(resp.Scores))
	for _, e := range resp.Scores {
		byName[e.Name] = e
	}

	out := make([]api.Score, 0, len(s.keys))
	for _, key := range s.keys {
		entry, ok := byName[key]
		if !ok || entry.Score == nil {
			return fail(fmt.Errorf("score %s: response has no value for %q", s.metric, key))
		}
		metadata := entry.Metadata
		if metadata == nil {
			metadata = make(map[string]any)
		}
		metadata["items"] = in.Len()
		out = append(out, api.Score{Name: key, Score: *entry.Score, Metadata: metadata})
	}
	return out
}

var _ api.CorpusScorer = (*Scorer)(nil)
