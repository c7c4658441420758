package runner

import (
	"context"
	"fmt"
	"net/http"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/clinical"
	"github.com/datar-psa/medeval/embedding"
	"github.com/datar-psa/medeval/heuristic"
	"github.com/datar-psa/medeval/internal/config"
	"github.com/datar-psa/medeval/internal/task"
	"github.com/datar-psa/medeval/internal/telemetry"
	"github.com/datar-psa/medeval/llmjudge"
	"github.com/datar-psa/medeval/oracle"
)

// Adapters builds one adapter per metric of t, each bound to the provider
// the configuration selects for it.
func (r *Resources) Adapters(t task.Task) ([]task.Adapter, error) {
	metrics, err := t.Metrics()
	if err != nil {
		return nil, err
	}
	out := make([]task.Adapter, 0, len(metrics))
	for _, m := range metrics {
		scorer, err := r.scorer(m)
		if err != nil {
			return nil, &task.AdapterError{Metric: m, Corpus: t.String(), Err: err}
		}
		out = append(out, task.Adapter{Metric: m, Keys: task.ReportKeys[m], Scorer: scorer})
	}
	return out, nil
}

func (r *Resources) scorer(metric string) (api.CorpusScorer, error) {
	name := task.ReportKeys[metric][0]
	provider := r.cfg.Metrics.Provider(metric)
	if provider == config.ProviderOracle {
		return r.oracle(metric), nil
	}

	switch metric {
	case task.MetricROUGE:
		return api.Averaged(name, heuristic.Rouge(heuristic.RougeOptions{})), nil
	case task.MetricBLEU:
		return heuristic.BLEU(heuristic.BLEUOptions{}), nil
	case task.MetricMETEOR:
		return api.Averaged(name, heuristic.Meteor(heuristic.MeteorOptions{})), nil
	case task.MetricReadability:
		return concat{
			api.Averaged(string(heuristic.FleschKincaidGrade), heuristic.Readability(heuristic.FleschKincaidGrade)),
			api.Averaged(string(heuristic.DaleChall), heuristic.Readability(heuristic.DaleChall)),
			api.Averaged(string(heuristic.ColemanLiau), heuristic.Readability(heuristic.ColemanLiau)),
		}, nil
	case task.MetricBERTScore:
		embedder, err := r.TokenEmbedder()
		if err != nil {
			return nil, err
		}
		return api.Averaged(name, embedding.BERTScore(embedder, embedding.BERTScoreOptions{})), nil
	case task.MetricSimilarity:
		embedder, err := r.Embedder(provider)
		if err != nil {
			return nil, err
		}
		return api.Averaged(name, embedding.EmbeddingSimilarity(embedder, embedding.EmbeddingSimilarityOptions{RawCosine: true})), nil
	case task.MetricLENS, task.MetricAlignScore, task.MetricSummaC, task.MetricRadGraph:
		llm, err := r.LLM(provider)
		if err != nil {
			return nil, err
		}
		return api.Averaged(name, judgeScorer(metric, llm, r.cfg.MaxDocumentChars)), nil
	case task.MetricF1CheXbert:
		extractor, err := r.EntityExtractor(provider)
		if err != nil {
			return nil, err
		}
		return clinical.EntityOverlap(extractor, clinical.EntityOverlapOptions{}), nil
	default:
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
}

func judgeScorer(metric string, llm api.LLMGenerator, maxDocumentChars int) api.Scorer {
	switch metric {
	case task.MetricLENS:
		return llmjudge.Plausibility(llm, llmjudge.PlausibilityOptions{})
	case task.MetricAlignScore:
		return llmjudge.Alignment(llm, llmjudge.AlignmentOptions{MaxDocumentChars: maxDocumentChars})
	case task.MetricSummaC:
		return llmjudge.Consistency(llm, llmjudge.ConsistencyOptions{MaxDocumentChars: maxDocumentChars})
	default:
		return clinical.FactF1(llmjudge.NewFactGraphExtractor(llm), clinical.FactF1Options{})
	}
}

func (r *Resources) oracle(metric string) api.CorpusScorer {
	return oracle.NewScorer(r.cfg.Oracle.URL, metric, oracle.Options{
		HTTPClient: telemetry.HTTPClient(&http.Client{Timeout: r.cfg.Oracle.Timeout}),
		MaxRetries: r.cfg.Oracle.MaxRetries,
		Keys:       task.ReportKeys[metric],
	})
}

// concat reports the scores of several corpus scorers in order. The first
// failing scorer aborts the evaluation.
type concat []api.CorpusScorer

func (c concat) ScoreCorpus(ctx context.Context, in api.CorpusInputs) []api.Score {
	var out []api.Score
	for _, s := range c {
		scores := s.ScoreCorpus(ctx, in)
		if err := task.ScoresError(scores); err != nil {
			return scores
		}
		out = append(out, scores...)
	}
	return out
}
