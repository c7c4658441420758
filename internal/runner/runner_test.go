package runner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/internal/config"
	"github.com/datar-psa/medeval/internal/corpus"
	"github.com/datar-psa/medeval/internal/task"
	"github.com/datar-psa/medeval/tei"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// lengthScorer reports the mean prediction length, plus 0.5 per extra key.
type lengthScorer struct {
	keys  int
	delay time.Duration
	err   error
}

func (s *lengthScorer) ScoreCorpus(ctx context.Context, in api.CorpusInputs) []api.Score {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return []api.Score{{Name: "fake", Error: s.err}}
	}
	var sum float64
	for _, p := range in.Predictions {
		sum += float64(len(p))
	}
	mean := sum / float64(in.Len())
	out := make([]api.Score, s.keys)
	for k := range out {
		out[k] = api.Score{Name: "fake", Score: mean + 0.5*float64(k)}
	}
	return out
}

func fakeBuild(failing string) func(task.Task) ([]task.Adapter, error) {
	return func(t task.Task) ([]task.Adapter, error) {
		metrics, err := t.Metrics()
		if err != nil {
			return nil, err
		}
		var out []task.Adapter
		for i, m := range metrics {
			// later adapters finish first under a pool
			s := &lengthScorer{keys: len(task.ReportKeys[m]), delay: time.Duration(len(metrics)-i) * time.Millisecond}
			if m == failing {
				s.err = errors.New(m + " unavailable")
			}
			out = append(out, task.Adapter{Metric: m, Keys: task.ReportKeys[m], Scorer: s})
		}
		return out, nil
	}
}

func newRunner(t *testing.T, parallelism int, failing string) *Runner {
	t.Helper()
	cfg := config.Default()
	cfg.Output = filepath.Join(t.TempDir(), "out", "scores.txt")
	cfg.Parallelism = parallelism
	return &Runner{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Build:  fakeBuild(failing),
	}
}

const openReport = `ROUGE: 3
BLEU: 3
METEOR: 3
BERTScore: 3
FKGL: 3
DCRS: 3.5
CLI: 4
similarity: 3
radgraph: 3
f1chexbert: 3
`

func openFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	pred := filepath.Join(dir, "open_rrg.txt")
	ref := filepath.Join(dir, "OPEN_test.jsonl")
	writeFile(t, pred, "ab\nabcd\n")
	writeFile(t, ref, `{"reference": "x"}`+"\n"+`{"reference": "y"}`+"\n")
	return pred, ref
}

func TestRunner_WritesReport(t *testing.T) {
	pred, ref := openFiles(t)
	r := newRunner(t, 1, "")

	m, err := r.Run(context.Background(), Request{Task: task.OpenReport, PredictionPath: pred, ReferencePath: ref})
	require.NoError(t, err)
	assert.Equal(t, 10, m.Len())

	got, err := os.ReadFile(r.Config.Output)
	require.NoError(t, err)
	assert.Equal(t, openReport, string(got))
}

func TestRunner_ParallelMatchesSequential(t *testing.T) {
	pred, ref := openFiles(t)
	req := Request{Task: task.OpenReport, PredictionPath: pred, ReferencePath: ref}

	var reports []string
	for _, parallelism := range []int{1, 4, 1} {
		r := newRunner(t, parallelism, "")
		_, err := r.Run(context.Background(), req)
		require.NoError(t, err)
		got, err := os.ReadFile(r.Config.Output)
		require.NoError(t, err)
		reports = append(reports, string(got))
	}
	assert.Equal(t, openReport, reports[0])
	assert.Equal(t, reports[0], reports[1])
	assert.Equal(t, reports[0], reports[2])
}

func TestRunner_FailureWritesNothing(t *testing.T) {
	pred, ref := openFiles(t)

	for _, parallelism := range []int{1, 3} {
		r := newRunner(t, parallelism, task.MetricRadGraph)
		_, err := r.Run(context.Background(), Request{Task: task.OpenReport, PredictionPath: pred, ReferencePath: ref})
		require.Error(t, err)

		var adapterErr *task.AdapterError
		require.True(t, errors.As(err, &adapterErr), "parallelism %d: %v", parallelism, err)
		assert.Equal(t, task.MetricRadGraph, adapterErr.Metric)

		_, statErr := os.Stat(r.Config.Output)
		assert.True(t, os.IsNotExist(statErr))
	}
}

func TestRunner_CountMismatch(t *testing.T) {
	pred, ref := openFiles(t)
	writeFile(t, pred, "a\nb\nc\n")
	r := newRunner(t, 1, "")

	_, err := r.Run(context.Background(), Request{Task: task.OpenReport, PredictionPath: pred, ReferencePath: ref})
	var mismatch *corpus.CountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 3, mismatch.Predictions)
	assert.Equal(t, 2, mismatch.References)
}

func TestRunner_LaySummaryAveragesSubCorpora(t *testing.T) {
	predDir, refDir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(predDir, "elife.txt"), "aa\naaaa\n")
	writeFile(t, filepath.Join(predDir, "plos.txt"), "a\n")
	writeFile(t, filepath.Join(refDir, "eLife_test.jsonl"),
		`{"reference": "r", "document": "abstract\nbody"}`+"\n"+`{"reference": "r", "document": "d"}`+"\n")
	writeFile(t, filepath.Join(refDir, "PLOS_test.jsonl"), `{"reference": "r", "document": "d"}`+"\n")
	r := newRunner(t, 2, "")

	m, err := r.Run(context.Background(), Request{Task: task.LaySummary, PredictionPath: predDir, ReferencePath: refDir})
	require.NoError(t, err)

	assert.Equal(t, []string{"ROUGE", "BLEU", "METEOR", "BERTScore", "FKGL", "DCRS", "CLI", "LENS", "AlignScore", "SummaC"}, m.Keys())
	rouge, _ := m.Get("ROUGE")
	assert.InDelta(t, 2.0, rouge, 1e-12)
}

func TestRunner_BlankReferenceScoresZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"scores": []map[string]any{{"name": task.ReportKeys[strings.TrimPrefix(r.URL.Path, "/score/")][0], "score": 0.25}},
		})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Output = filepath.Join(t.TempDir(), "scores.txt")
	cfg.Oracle.URL = srv.URL
	cfg.Metrics = config.MetricsConfig{
		BERTScore:  config.ProviderOracle,
		Similarity: config.ProviderOracle,
		RadGraph:   config.ProviderOracle,
		F1CheXbert: config.ProviderOracle,
	}
	res := &Resources{cfg: cfg}
	r := &Runner{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Build:  res.Adapters,
	}

	dir := t.TempDir()
	pred := filepath.Join(dir, "open_rrg.txt")
	ref := filepath.Join(dir, "OPEN_test.jsonl")
	writeFile(t, pred, "a finding\nsomething else\n")
	writeFile(t, ref, `{"reference": "a finding"}`+"\n"+`{"reference": ""}`+"\n")

	m, err := r.Run(context.Background(), Request{Task: task.OpenReport, PredictionPath: pred, ReferencePath: ref})
	require.NoError(t, err)

	rouge, _ := m.Get("ROUGE")
	assert.InDelta(t, 0.5, rouge, 1e-12)
	meteor, _ := m.Get("METEOR")
	assert.Less(t, meteor, 0.5)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Contains(t, string(got), "ROUGE: 0.5\n")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "preds.txt")
	writeFile(t, file, "a\n")

	sources, err := Resolve(task.OpenReport, file, file)
	require.NoError(t, err)
	assert.Equal(t, []Source{{Name: "open_rrg", PredictionPath: file, ReferencePath: file}}, sources)

	sources, err = Resolve(task.ClosedReport, dir, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "close_rrg.txt"), sources[0].PredictionPath)
	assert.Equal(t, filepath.Join(dir, "CLOSE_test.jsonl"), sources[0].ReferencePath)

	sources, err = Resolve(task.LaySummary, dir, dir)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "PLOS", sources[1].Name)

	_, err = Resolve(task.LaySummary, file, dir)
	assert.ErrorIs(t, err, corpus.ErrInput)

	_, err = Resolve(task.OpenReport, filepath.Join(dir, "missing.txt"), file)
	assert.ErrorIs(t, err, corpus.ErrInput)
}

func TestResources_Adapters(t *testing.T) {
	cfg := config.Default()
	cfg.Oracle.URL = "http://oracle.invalid"
	cfg.Metrics.RadGraph = config.ProviderOracle
	cfg.Metrics.F1CheXbert = config.ProviderOracle
	res := &Resources{cfg: cfg, tei: tei.NewClient("http://tei.invalid", tei.WithHTTPClient(http.DefaultClient))}

	adapters, err := res.Adapters(task.OpenReport)
	require.NoError(t, err)

	var metrics []string
	for _, a := range adapters {
		metrics = append(metrics, a.Metric)
		assert.Equal(t, task.ReportKeys[a.Metric], a.Keys)
		assert.NotNil(t, a.Scorer)
	}
	want, _ := task.OpenReport.Metrics()
	assert.Equal(t, want, metrics)

	// lay summary judges default to gemini, which was not opened
	_, err = res.Adapters(task.LaySummary)
	assert.ErrorIs(t, err, api.ErrProviderRequired)
	var adapterErr *task.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, task.MetricLENS, adapterErr.Metric)
}

func TestResources_GeminiEmbedOptions(t *testing.T) {
	cfg := config.Default()
	res := &Resources{cfg: cfg}
	assert.Empty(t, res.geminiEmbedOptions())

	cfg.Gemini.EmbeddingTaskType = "RETRIEVAL_DOCUMENT"
	cfg.Gemini.EmbeddingDimensions = 256
	assert.Len(t, res.geminiEmbedOptions(), 2)
}

type choiceLLM struct{}

func (choiceLLM) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"choice": "A", "explanation": "ok", "entailment": []interface{}{1.0}}, nil
}

func TestJudgeScorer_TruncatesDocuments(t *testing.T) {
	in := api.ScoreInputs{Input: "a long source article", Output: "One claim."}
	for _, metric := range []string{task.MetricAlignScore, task.MetricSummaC} {
		result := judgeScorer(metric, choiceLLM{}, 6).Score(context.Background(), in)
		require.NoError(t, result.Error, metric)
		assert.Equal(t, true, result.Metadata["document_truncated"], metric)

		result = judgeScorer(metric, choiceLLM{}, 0).Score(context.Background(), in)
		require.NoError(t, result.Error, metric)
		assert.Nil(t, result.Metadata["document_truncated"], metric)
	}
}

func TestConcat(t *testing.T) {
	in := api.CorpusInputs{Predictions: []string{"ab"}, References: []string{"r"}}

	scores := concat{&lengthScorer{keys: 1}, &lengthScorer{keys: 2}}.ScoreCorpus(context.Background(), in)
	require.Len(t, scores, 3)
	assert.Equal(t, 2.5, scores[2].Score)

	failed := concat{&lengthScorer{keys: 1}, &lengthScorer{keys: 1, err: errors.New("boom")}}.ScoreCorpus(context.Background(), in)
	require.Len(t, failed, 1)
	assert.EqualError(t, failed[0].Error, "boom")
}
