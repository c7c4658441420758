package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/datar-psa/medeval/api"
)

// BERTScoreOptions configures the BERTScore scorer
type BERTScoreOptions struct {
	// Baseline rescales scores with (s - b) / (1 - b) when non-zero
	Baseline float64
}

// BERTScore returns a scorer that greedily aligns every token of Output with
// its most similar token of Expected (and vice versa) using contextual token
// embeddings and reports the F1 of the alignment.
func BERTScore(embedder api.TokenEmbedder, opts BERTScoreOptions) api.Scorer {
	return &bertScoreScorer{embedder: embedder, opts: opts}
}

type bertScoreScorer struct {
	embedder api.TokenEmbedder
	opts     BERTScoreOptions
}

func (s *bertScoreScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "BERTScore",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Metadata["empty_expected"] = true
		return result
	}

	if s.embedder == nil {
		result.Error = fmt.Errorf("token embedder is required")
		return result
	}

	cand, err := s.embedder.EmbedTokens(ctx, in.Output)
	if err != nil {
		result.Error = fmt.Errorf("failed to embed output tokens: %w", err)
		return result
	}
	ref, err := s.embedder.EmbedTokens(ctx, in.Expected)
	if err != nil {
		result.Error = fmt.Errorf("failed to embed expected tokens: %w", err)
		return result
	}

	precision, recall, f1 := greedyMatch(cand, ref)
	if s.opts.Baseline != 0 {
		precision = rescale(precision, s.opts.Baseline)
		recall = rescale(recall, s.opts.Baseline)
		f1 = rescale(f1, s.opts.Baseline)
	}

	result.Score = f1
	result.Metadata["precision"] = precision
	result.Metadata["recall"] = recall
	result.Metadata["candidate_tokens"] = len(cand)
	result.Metadata["reference_tokens"] = len(ref)
	return result
}

// greedyMatch returns BERTScore precision, recall and F1 for two token
// embedding sequences.
func greedyMatch(cand, ref [][]float64) (float64, float64, float64) {
	if len(cand) == 0 || len(ref) == 0 {
		return 0, 0, 0
	}

	candNorm := normalizeRows(cand)
	refNorm := normalizeRows(ref)

	candBest := make([]float64, len(candNorm))
	refBest := make([]float64, len(refNorm))
	for i := range candBest {
		candBest[i] = math.Inf(-1)
	}
	for j := range refBest {
		refBest[j] = math.Inf(-1)
	}

	for i, c := range candNorm {
		for j, r := range refNorm {
			sim := dot(c, r)
			candBest[i] = math.Max(candBest[i], sim)
			refBest[j] = math.Max(refBest[j], sim)
		}
	}

	precision := mean(candBest)
	recall := mean(refBest)
	if precision+recall == 0 {
		return precision, recall, 0
	}
	return precision, recall, 2 * precision * recall / (precision + recall)
}

func normalizeRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		var norm float64
		for _, v := range row {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		normalized := make([]float64, len(row))
		if norm > 0 {
			for k, v := range row {
				normalized[k] = v / norm
			}
		}
		out[i] = normalized
	}
	return out
}

func dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func rescale(v, baseline float64) float64 {
	return (v - baseline) / (1 - baseline)
}
