// Package clinical implements report-level factuality scorers over extracted
// clinical entities and fact graphs.
package clinical

import (
	"context"
	"fmt"

	"github.com/datar-psa/medeval/api"
)

// EntityOverlapOptions configures the EntityOverlap scorer
type EntityOverlapOptions struct {
	// Labels restricts matching to entities carrying one of these labels.
	// Empty keeps every label.
	Labels []string
	// IgnoreLabel matches entities on Text only
	IgnoreLabel bool
}

// EntityOverlap returns a corpus scorer that extracts entities from every
// prediction and reference and reports the micro-averaged F1 of
// (item, entity) pairs. Accuracy of exact per-item set equality is reported
// in metadata.
func EntityOverlap(extractor api.EntityExtractor, opts EntityOverlapOptions) api.CorpusScorer {
	labels := make(map[string]bool, len(opts.Labels))
	for _, l := range opts.Labels {
		labels[l] = true
	}
	return &entityOverlapScorer{extractor: extractor, opts: opts, labels: labels}
}

type entityOverlapScorer struct {
	extractor api.EntityExtractor
	opts      EntityOverlapOptions
	labels    map[string]bool
}

func (s *entityOverlapScorer) ScoreCorpus(ctx context.Context, in api.CorpusInputs) []api.Score {
	result := api.Score{
		Name:     "EntityOverlap",
		Metadata: make(map[string]any),
	}

	if err := in.Validate(); err != nil {
		result.Error = err
		return []api.Score{result}
	}
	if s.extractor == nil {
		result.Error = api.ErrProviderRequired
		return []api.Score{result}
	}

	var tp, fp, fn, exact int
	for i := 0; i < in.Len(); i++ {
		hyp, err := s.extract(ctx, in.Predictions[i])
		if err != nil {
			result.Error = fmt.Errorf("item %d prediction: %w", i, err)
			result.Metadata["failed_item"] = i
			return []api.Score{result}
		}
		ref, err := s.extract(ctx, in.References[i])
		if err != nil {
			result.Error = fmt.Errorf("item %d reference: %w", i, err)
			result.Metadata["failed_item"] = i
			return []api.Score{result}
		}

		matched := 0
		for k := range hyp {
			if ref[k] {
				matched++
			}
		}
		tp += matched
		fp += len(hyp) - matched
		fn += len(ref) - matched
		if matched == len(hyp) && matched == len(ref) {
			exact++
		}
	}

	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	result.Score = f1
	result.Metadata["precision"] = precision
	result.Metadata["recall"] = recall
	result.Metadata["accuracy"] = ratio(exact, in.Len())
	result.Metadata["true_positives"] = tp
	result.Metadata["false_positives"] = fp
	result.Metadata["false_negatives"] = fn
	result.Metadata["items"] = in.Len()
	return []api.Score{result}
}

func (s *entityOverlapScorer) extract(ctx context.Context, text string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entities, err := s.extractor.ExtractEntities(ctx, text)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(entities))
	for _, e := range entities {
		if len(s.labels) > 0 && !s.labels[e.Label] {
			continue
		}
		key := e.Text
		if !s.opts.IgnoreLabel {
			key = e.Text + "\x00" + e.Label
		}
		set[key] = true
	}
	return set, nil
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
