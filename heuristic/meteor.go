package heuristic

import (
	"context"
	"math"
	"sort"

	"github.com/datar-psa/medeval/api"
)

// MeteorOptions configures the Meteor scorer.
// Zero values select the standard parameters alpha=0.9, beta=3, gamma=0.5.
type MeteorOptions struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// Meteor returns a scorer computing single-reference METEOR with exact and
// stem matching stages and a fragmentation penalty.
func Meteor(opts MeteorOptions) api.Scorer {
	if opts.Alpha == 0 {
		opts.Alpha = 0.9
	}
	if opts.Beta == 0 {
		opts.Beta = 3
	}
	if opts.Gamma == 0 {
		opts.Gamma = 0.5
	}
	return &meteorScorer{opts: opts}
}

type meteorScorer struct {
	opts MeteorOptions
}

type wordMatch struct {
	hyp int
	ref int
}

func (s *meteorScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "METEOR",
		Metadata: make(map[string]any),
	}

	// An empty reference shares nothing with the output.
	if in.Expected == "" {
		result.Metadata["empty_expected"] = true
		result.Score = 0
		return result
	}

	hyp := wordTokens(in.Output)
	ref := wordTokens(in.Expected)

	matches := alignWords(hyp, ref)
	result.Metadata["matches"] = len(matches)
	result.Metadata["hypothesis_length"] = len(hyp)
	result.Metadata["reference_length"] = len(ref)
	if len(matches) == 0 {
		result.Score = 0
		return result
	}

	m := float64(len(matches))
	precision := m / float64(len(hyp))
	recall := m / float64(len(ref))
	fmean := precision * recall / (s.opts.Alpha*precision + (1-s.opts.Alpha)*recall)

	chunks := countChunks(matches)
	fragFrac := float64(chunks) / m
	penalty := s.opts.Gamma * math.Pow(fragFrac, s.opts.Beta)

	result.Score = (1 - penalty) * fmean
	result.Metadata["chunks"] = chunks
	result.Metadata["fmean"] = fmean
	result.Metadata["penalty"] = penalty
	return result
}

// alignWords matches words exactly first, then by stem. Each stage scans
// both sequences from the end, as NLTK does, so ties resolve identically.
func alignWords(hyp, ref []string) []wordMatch {
	hypLeft := make([]int, len(hyp))
	for i := range hyp {
		hypLeft[i] = i
	}
	refLeft := make([]int, len(ref))
	for i := range ref {
		refLeft[i] = i
	}

	var matches []wordMatch
	stage := func(key func(string) string) {
		hypKeys := make(map[int]string, len(hypLeft))
		for _, i := range hypLeft {
			hypKeys[i] = key(hyp[i])
		}
		refKeys := make(map[int]string, len(refLeft))
		for _, j := range refLeft {
			refKeys[j] = key(ref[j])
		}
		for hi := len(hypLeft) - 1; hi >= 0; hi-- {
			for ri := len(refLeft) - 1; ri >= 0; ri-- {
				if hypKeys[hypLeft[hi]] != refKeys[refLeft[ri]] {
					continue
				}
				matches = append(matches, wordMatch{hyp: hypLeft[hi], ref: refLeft[ri]})
				hypLeft = append(hypLeft[:hi], hypLeft[hi+1:]...)
				refLeft = append(refLeft[:ri], refLeft[ri+1:]...)
				break
			}
		}
	}
	stage(func(w string) string { return w })
	stage(stem)

	sort.Slice(matches, func(a, b int) bool { return matches[a].hyp < matches[b].hyp })
	return matches
}

// countChunks counts runs of matches contiguous in both sequences.
func countChunks(matches []wordMatch) int {
	chunks := 1
	for i := 0; i < len(matches)-1; i++ {
		if matches[i+1].hyp == matches[i].hyp+1 && matches[i+1].ref == matches[i].ref+1 {
			continue
		}
		chunks++
	}
	return chunks
}
