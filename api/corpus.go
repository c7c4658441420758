package api

import (
	"context"
	"fmt"
)

// CorpusInputs carries an aligned corpus for corpus-level scorers.
// Predictions[i], References[i] and Documents[i] describe the same item.
// Documents is nil for tasks without a source document.
type CorpusInputs struct {
	Predictions []string
	References  []string
	Documents   []string
}

// Len returns the number of items in the corpus.
func (in CorpusInputs) Len() int { return len(in.Predictions) }

// Item returns the per-item inputs at index i.
func (in CorpusInputs) Item(i int) ScoreInputs {
	item := ScoreInputs{Output: in.Predictions[i], Expected: in.References[i]}
	if in.Documents != nil {
		item.Input = in.Documents[i]
	}
	return item
}

// Validate checks that the corpus is non-empty and aligned.
func (in CorpusInputs) Validate() error {
	if len(in.Predictions) == 0 {
		return ErrEmptyCorpus
	}
	if len(in.References) != len(in.Predictions) {
		return fmt.Errorf("%w: %d predictions, %d references", ErrMisalignedCorpus, len(in.Predictions), len(in.References))
	}
	if in.Documents != nil && len(in.Documents) != len(in.Predictions) {
		return fmt.Errorf("%w: %d predictions, %d documents", ErrMisalignedCorpus, len(in.Predictions), len(in.Documents))
	}
	return nil
}

// CorpusScorer evaluates a whole corpus.
// It returns one Score per reported metric; a failed evaluation returns a
// single Score carrying the Error.
type CorpusScorer interface {
	ScoreCorpus(ctx context.Context, in CorpusInputs) []Score
}

// Averaged lifts a per-item Scorer into a CorpusScorer reporting the
// arithmetic mean of the item scores under name.
// The first failing item aborts the evaluation with its error.
func Averaged(name string, scorer Scorer) CorpusScorer {
	return &averagedScorer{name: name, scorer: scorer}
}

type averagedScorer struct {
	name   string
	scorer Scorer
}

func (s *averagedScorer) ScoreCorpus(ctx context.Context, in CorpusInputs) []Score {
	result := Score{
		Name:     s.name,
		Metadata: make(map[string]any),
	}

	if err := in.Validate(); err != nil {
		result.Error = err
		return []Score{result}
	}

	var sum float64
	for i := 0; i < in.Len(); i++ {
		if err := ctx.Err(); err != nil {
			result.Error = err
			return []Score{result}
		}
		item := s.scorer.Score(ctx, in.Item(i))
		if item.Error != nil {
			result.Error = fmt.Errorf("item %d: %w", i, item.Error)
			result.Metadata["failed_item"] = i
			return []Score{result}
		}
		sum += item.Score
	}

	result.Score = sum / float64(in.Len())
	result.Metadata["items"] = in.Len()
	return []Score{result}
}
