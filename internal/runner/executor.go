package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/internal/task"
	"github.com/datar-psa/medeval/internal/telemetry"
)

// adapterRun scores one corpus with one adapter inside a span and logs its
// duration.
func adapterRun(ctx context.Context, logger *slog.Logger, name string, a task.Adapter, in api.CorpusInputs) []api.Score {
	ctx, span := telemetry.Tracer().Start(ctx, "medeval.adapter", trace.WithAttributes(
		telemetry.AttrMetric.String(a.Metric),
		telemetry.AttrCorpus.String(name),
		telemetry.AttrItems.Int(in.Len()),
	))
	defer span.End()

	start := time.Now()
	scores := a.Scorer.ScoreCorpus(ctx, in)
	if err := task.ScoresError(scores); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("adapter failed", "metric", a.Metric, "corpus", name, "duration", time.Since(start), "error", err)
		return scores
	}
	logger.Info("adapter finished", "metric", a.Metric, "corpus", name, "duration", time.Since(start))
	return scores
}

func sequentialExecutor(logger *slog.Logger) task.Executor {
	return func(ctx context.Context, name string, adapters []task.Adapter, in api.CorpusInputs) ([][]api.Score, error) {
		out := make([][]api.Score, len(adapters))
		for i, a := range adapters {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scores := adapterRun(ctx, logger, name, a, in)
			if err := task.ScoresError(scores); err != nil {
				return nil, &task.AdapterError{Metric: a.Metric, Corpus: name, Err: err}
			}
			out[i] = scores
		}
		return out, nil
	}
}

type adapterParam struct {
	ctx     context.Context
	logger  *slog.Logger
	name    string
	adapter task.Adapter
	in      api.CorpusInputs
	idx     int
	results [][]api.Score
	wg      *sync.WaitGroup
}

var adapterParamPool = sync.Pool{
	New: func() any { return new(adapterParam) },
}

func (p *adapterParam) reset() {
	*p = adapterParam{}
}

func newAdapterPool(size int) (*ants.PoolWithFunc, error) {
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*adapterParam)
		if !ok {
			panic("adapter pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			adapterParamPool.Put(param)
		}()
		param.results[param.idx] = adapterRun(param.ctx, param.logger, param.name, param.adapter, param.in)
	})
	if err != nil {
		return nil, fmt.Errorf("create adapter pool: %w", err)
	}
	return pool, nil
}

// poolExecutor runs all adapters of a corpus on pool, waits for every one of
// them and reports all failures together. Results are stored by adapter
// index, so completion order does not affect the mapping.
func poolExecutor(pool *ants.PoolWithFunc, logger *slog.Logger) task.Executor {
	return func(ctx context.Context, name string, adapters []task.Adapter, in api.CorpusInputs) ([][]api.Score, error) {
		results := make([][]api.Score, len(adapters))
		var wg sync.WaitGroup
		var merr *multierror.Error
		for i, a := range adapters {
			wg.Add(1)
			param := adapterParamPool.Get().(*adapterParam)
			param.ctx = ctx
			param.logger = logger
			param.name = name
			param.adapter = a
			param.in = in
			param.idx = i
			param.results = results
			param.wg = &wg
			if err := pool.Invoke(param); err != nil {
				wg.Done()
				param.reset()
				adapterParamPool.Put(param)
				merr = multierror.Append(merr, &task.AdapterError{Metric: a.Metric, Corpus: name, Err: fmt.Errorf("submit to pool: %w", err)})
			}
		}
		wg.Wait()

		for i, a := range adapters {
			if results[i] == nil {
				continue
			}
			if err := task.ScoresError(results[i]); err != nil {
				merr = multierror.Append(merr, &task.AdapterError{Metric: a.Metric, Corpus: name, Err: err})
			}
		}
		if err := merr.ErrorOrNil(); err != nil {
			return nil, err
		}
		return results, nil
	}
}
