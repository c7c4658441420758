// Package runner wires corpus loading, metric adapters, aggregation and the
// report writer into one evaluation run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/datar-psa/medeval/internal/aggregate"
	"github.com/datar-psa/medeval/internal/config"
	"github.com/datar-psa/medeval/internal/corpus"
	"github.com/datar-psa/medeval/internal/report"
	"github.com/datar-psa/medeval/internal/task"
	"github.com/datar-psa/medeval/internal/telemetry"
)

// Request describes one evaluation.
type Request struct {
	Task task.Task
	// PredictionPath and ReferencePath are files for single sub-corpus
	// tasks, or directories holding the task's files.
	PredictionPath string
	ReferencePath  string
}

// Source is a resolved prediction/reference file pair.
type Source struct {
	Name           string
	PredictionPath string
	ReferencePath  string
}

// Runner executes evaluation requests.
type Runner struct {
	Config *config.Config
	Logger *slog.Logger
	// Build returns the adapters of a task
	Build func(t task.Task) ([]task.Adapter, error)
}

// Run opens the provider clients the task needs, evaluates the request and
// writes the report to cfg.Output.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, req Request) error {
	metrics, err := req.Task.Metrics()
	if err != nil {
		return err
	}
	res, err := OpenResources(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("failed to release resources", "error", err)
		}
	}()

	r := &Runner{Config: cfg, Logger: logger, Build: res.Adapters}
	_, err = r.Run(ctx, req)
	return err
}

// Run evaluates every sub-corpus of the request, averages their mappings
// and writes the report. Nothing is written when any step fails.
func (r *Runner) Run(ctx context.Context, req Request) (aggregate.Mapping, error) {
	runID := uuid.NewString()
	logger := r.logger().With("run_id", runID, "task", req.Task.String())

	ctx, span := telemetry.Tracer().Start(ctx, "medeval.run", trace.WithAttributes(
		telemetry.AttrRunID.String(runID),
		telemetry.AttrTask.String(req.Task.String()),
	))
	defer span.End()

	start := time.Now()
	logger.Info("evaluation started", "predictions", req.PredictionPath, "references", req.ReferencePath)

	m, err := r.evaluate(ctx, logger, req)
	if err == nil {
		err = report.Write(r.Config.Output, m)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("evaluation failed", "error", err, "duration", time.Since(start))
		return aggregate.Mapping{}, err
	}

	logger.Info("evaluation finished", "output", r.Config.Output, "metrics", m.Len(), "duration", time.Since(start))
	return m, nil
}

func (r *Runner) evaluate(ctx context.Context, logger *slog.Logger, req Request) (aggregate.Mapping, error) {
	sources, err := Resolve(req.Task, req.PredictionPath, req.ReferencePath)
	if err != nil {
		return aggregate.Mapping{}, err
	}
	if r.Build == nil {
		return aggregate.Mapping{}, fmt.Errorf("runner has no adapter builder")
	}
	adapters, err := r.Build(req.Task)
	if err != nil {
		return aggregate.Mapping{}, err
	}

	execute := sequentialExecutor(logger)
	if r.Config.Parallelism > 1 {
		pool, err := newAdapterPool(r.Config.Parallelism)
		if err != nil {
			return aggregate.Mapping{}, err
		}
		defer pool.Release()
		execute = poolExecutor(pool, logger)
	}

	d := &task.Dispatcher{
		Task:        req.Task,
		Adapters:    adapters,
		ClosedSplit: r.Config.ClosedSplit,
		Execute:     execute,
	}

	mappings := make([]aggregate.Mapping, 0, len(sources))
	for _, src := range sources {
		m, err := r.evaluateSource(ctx, logger, d, src)
		if err != nil {
			return aggregate.Mapping{}, err
		}
		mappings = append(mappings, m)
	}
	return aggregate.Mean(mappings...)
}

func (r *Runner) evaluateSource(ctx context.Context, logger *slog.Logger, d *task.Dispatcher, src Source) (aggregate.Mapping, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "medeval.corpus", trace.WithAttributes(
		telemetry.AttrCorpus.String(src.Name),
	))
	defer span.End()

	var c *corpus.Corpus
	requireDocument, err := d.Task.RequiresDocument()
	if err == nil {
		c, err = corpus.Load(src.Name, src.PredictionPath, src.ReferencePath, requireDocument)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return aggregate.Mapping{}, err
	}
	span.SetAttributes(telemetry.AttrItems.Int(c.Len()))
	logger.Info("evaluating corpus", "corpus", src.Name, "items", c.Len())

	m, err := d.Evaluate(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return aggregate.Mapping{}, err
	}
	return m, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Resolve maps the request paths to the task's sub-corpus files. A
// directory is searched for the task's file names; a file is used as is,
// which only single sub-corpus tasks allow.
func Resolve(t task.Task, predictionPath, referencePath string) ([]Source, error) {
	subs, err := t.SubCorpora()
	if err != nil {
		return nil, err
	}

	predDir, err := isDir(predictionPath)
	if err != nil {
		return nil, err
	}
	refDir, err := isDir(referencePath)
	if err != nil {
		return nil, err
	}
	if len(subs) > 1 && (!predDir || !refDir) {
		return nil, fmt.Errorf("%w: task %s needs prediction and reference directories", corpus.ErrInput, t)
	}

	out := make([]Source, 0, len(subs))
	for _, sub := range subs {
		src := Source{Name: sub.Name, PredictionPath: predictionPath, ReferencePath: referencePath}
		if predDir {
			src.PredictionPath = filepath.Join(predictionPath, sub.PredictionFile)
		}
		if refDir {
			src.ReferencePath = filepath.Join(referencePath, sub.ReferenceFile)
		}
		out = append(out, src)
	}
	return out, nil
}

func isDir(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: empty path", corpus.ErrInput)
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", corpus.ErrInput, err)
	}
	return info.IsDir(), nil
}
