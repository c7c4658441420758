package clinical

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/datar-psa/medeval/api"
)

// RewardLevel selects how fact graphs are compared
type RewardLevel string

const (
	// RewardSimple compares (tokens, label) entity pairs
	RewardSimple RewardLevel = "simple"
	// RewardPartial compares entities with their relation labels
	RewardPartial RewardLevel = "partial"
	// RewardComplete compares entities with their full relations
	RewardComplete RewardLevel = "complete"
)

// FactF1Options configures the FactF1 scorer
type FactF1Options struct {
	// RewardLevel is reported as the score; defaults to RewardComplete.
	// All three levels are always reported in metadata.
	RewardLevel RewardLevel
}

// FactF1 returns a scorer that extracts a fact graph from Output and Expected
// and reports the F1 of their matching facts at the configured reward level.
func FactF1(extractor api.FactExtractor, opts FactF1Options) api.Scorer {
	if opts.RewardLevel == "" {
		opts.RewardLevel = RewardComplete
	}
	return &factF1Scorer{extractor: extractor, opts: opts}
}

type factF1Scorer struct {
	extractor api.FactExtractor
	opts      FactF1Options
}

func (s *factF1Scorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "FactF1",
		Metadata: make(map[string]any),
	}

	if s.extractor == nil {
		result.Error = api.ErrProviderRequired
		return result
	}

	hyp, err := s.extractor.ExtractFacts(ctx, in.Output)
	if err != nil {
		result.Error = fmt.Errorf("failed to extract output facts: %w", err)
		return result
	}
	ref, err := s.extractor.ExtractFacts(ctx, in.Expected)
	if err != nil {
		result.Error = fmt.Errorf("failed to extract expected facts: %w", err)
		return result
	}

	rewards := map[RewardLevel]float64{
		RewardSimple:   setF1(facts(hyp, RewardSimple), facts(ref, RewardSimple)),
		RewardPartial:  setF1(facts(hyp, RewardPartial), facts(ref, RewardPartial)),
		RewardComplete: setF1(facts(hyp, RewardComplete), facts(ref, RewardComplete)),
	}

	score, ok := rewards[s.opts.RewardLevel]
	if !ok {
		result.Error = fmt.Errorf("unknown reward level %q", s.opts.RewardLevel)
		return result
	}

	result.Score = score
	result.Metadata["reward_level"] = string(s.opts.RewardLevel)
	result.Metadata["simple"] = rewards[RewardSimple]
	result.Metadata["partial"] = rewards[RewardPartial]
	result.Metadata["complete"] = rewards[RewardComplete]
	result.Metadata["output_entities"] = entityCount(hyp)
	result.Metadata["expected_entities"] = entityCount(ref)
	return result
}

// facts flattens a graph into comparable keys for one reward level.
func facts(g *api.FactGraph, level RewardLevel) map[string]bool {
	out := make(map[string]bool)
	if g == nil {
		return out
	}

	byID := make(map[string]api.FactEntity, len(g.Entities))
	for _, e := range g.Entities {
		byID[e.ID] = e
	}

	for _, e := range g.Entities {
		key := e.Tokens + "|" + e.Label
		switch level {
		case RewardSimple:
		case RewardPartial:
			types := make([]string, 0, len(e.Relations))
			for _, r := range e.Relations {
				types = append(types, r.Type)
			}
			sort.Strings(types)
			key += "|" + strings.Join(types, ",")
		case RewardComplete:
			rels := make([]string, 0, len(e.Relations))
			for _, r := range e.Relations {
				target := byID[r.Target]
				rels = append(rels, r.Type+">"+target.Tokens+"/"+target.Label)
			}
			sort.Strings(rels)
			key += "|" + strings.Join(rels, ",")
		}
		out[key] = true
	}
	return out
}

// setF1 is the F1 of two fact sets. Two empty sets agree perfectly.
func setF1(hyp, ref map[string]bool) float64 {
	if len(hyp) == 0 && len(ref) == 0 {
		return 1
	}
	matched := 0
	for k := range hyp {
		if ref[k] {
			matched++
		}
	}
	precision := ratio(matched, len(hyp))
	recall := ratio(matched, len(ref))
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func entityCount(g *api.FactGraph) int {
	if g == nil {
		return 0
	}
	return len(g.Entities)
}
