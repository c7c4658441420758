package task

import (
	"context"
	"fmt"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/internal/aggregate"
	"github.com/datar-psa/medeval/internal/corpus"
)

// Adapter binds a metric to the corpus scorer that computes it.
type Adapter struct {
	Metric string
	Keys   []string
	Scorer api.CorpusScorer
}

// AdapterError reports a failed metric adapter.
type AdapterError struct {
	Metric string
	Corpus string
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("metric %s on %s: %v", e.Metric, e.Corpus, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Executor runs adapters over one corpus and returns their scores by
// adapter index. It fails when any adapter reports an error.
type Executor func(ctx context.Context, name string, adapters []Adapter, in api.CorpusInputs) ([][]api.Score, error)

// Sequential runs adapters one after another and stops at the first failure.
func Sequential(ctx context.Context, name string, adapters []Adapter, in api.CorpusInputs) ([][]api.Score, error) {
	out := make([][]api.Score, len(adapters))
	for i, a := range adapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores := a.Scorer.ScoreCorpus(ctx, in)
		if err := ScoresError(scores); err != nil {
			return nil, &AdapterError{Metric: a.Metric, Corpus: name, Err: err}
		}
		out[i] = scores
	}
	return out, nil
}

// ScoresError returns the first error carried by scores.
func ScoresError(scores []api.Score) error {
	for _, s := range scores {
		if s.Error != nil {
			return s.Error
		}
	}
	return nil
}

// Dispatcher evaluates corpora of one task.
type Dispatcher struct {
	Task Task
	// Adapters must cover Task.Metrics(), in any order
	Adapters []Adapter
	// ClosedSplit is the ClosedReport chunk boundary
	ClosedSplit int
	// Execute defaults to Sequential
	Execute Executor
}

// Ordered returns the adapters in the task's metric order.
func (d *Dispatcher) Ordered() ([]Adapter, error) {
	metrics, err := d.Task.Metrics()
	if err != nil {
		return nil, err
	}
	byMetric := make(map[string]Adapter, len(d.Adapters))
	for _, a := range d.Adapters {
		byMetric[a.Metric] = a
	}

	out := make([]Adapter, 0, len(metrics))
	for _, m := range metrics {
		a, ok := byMetric[m]
		if !ok || a.Scorer == nil {
			return nil, &AdapterError{Metric: m, Corpus: d.Task.String(), Err: api.ErrProviderRequired}
		}
		if len(a.Keys) == 0 {
			a.Keys = ReportKeys[m]
		}
		out = append(out, a)
	}
	return out, nil
}

// Evaluate scores one sub-corpus: every chunk is scored with the task's
// adapters and the chunk mappings are averaged.
func (d *Dispatcher) Evaluate(ctx context.Context, c *corpus.Corpus) (aggregate.Mapping, error) {
	adapters, err := d.Ordered()
	if err != nil {
		return aggregate.Mapping{}, err
	}
	chunks, err := d.Task.Chunks(c, d.ClosedSplit)
	if err != nil {
		return aggregate.Mapping{}, err
	}

	execute := d.Execute
	if execute == nil {
		execute = Sequential
	}

	mappings := make([]aggregate.Mapping, 0, len(chunks))
	for _, chunk := range chunks {
		name := c.Name
		if len(chunks) > 1 || chunk.Name != c.Name {
			name = c.Name + "/" + chunk.Name
		}
		results, err := execute(ctx, name, adapters, chunk.Inputs())
		if err != nil {
			return aggregate.Mapping{}, err
		}
		m, err := toMapping(name, adapters, results)
		if err != nil {
			return aggregate.Mapping{}, err
		}
		mappings = append(mappings, m)
	}
	return aggregate.Mean(mappings...)
}

func toMapping(name string, adapters []Adapter, results [][]api.Score) (aggregate.Mapping, error) {
	var m aggregate.Mapping
	if len(results) != len(adapters) {
		return m, fmt.Errorf("corpus %s: %d adapter results for %d adapters", name, len(results), len(adapters))
	}
	for i, a := range adapters {
		scores := results[i]
		if err := ScoresError(scores); err != nil {
			return m, &AdapterError{Metric: a.Metric, Corpus: name, Err: err}
		}
		if len(scores) != len(a.Keys) {
			return m, &AdapterError{Metric: a.Metric, Corpus: name, Err: fmt.Errorf("returned %d scores for keys %v", len(scores), a.Keys)}
		}
		for j, key := range a.Keys {
			m.Set(key, scores[j].Score)
		}
	}
	return m, nil
}
