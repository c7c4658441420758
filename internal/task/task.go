// Package task maps evaluation tasks to their sub-corpora and metric battery
// and turns adapter scores into an ordered metric mapping.
package task

import (
	"fmt"
	"strings"

	"github.com/datar-psa/medeval/internal/corpus"
)

// Task is an evaluation task.
type Task int

const (
	// LaySummary evaluates lay summaries of eLife and PLOS articles.
	LaySummary Task = iota + 1
	// OpenReport evaluates open-domain radiology report generation.
	OpenReport
	// ClosedReport evaluates closed-domain radiology report generation.
	ClosedReport
)

var names = map[string]Task{
	"lay_summ":             LaySummary,
	"lay-summary":          LaySummary,
	"open_rrg":             OpenReport,
	"open-domain-report":   OpenReport,
	"close_rrg":            ClosedReport,
	"closed-domain-report": ClosedReport,
}

// Parse accepts the canonical task names and their long aliases.
func Parse(name string) (Task, error) {
	t, ok := names[strings.TrimSpace(name)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown task %q (want lay_summ, open_rrg or close_rrg)", corpus.ErrInput, name)
	}
	return t, nil
}

// String returns the canonical task name.
func (t Task) String() string {
	switch t {
	case LaySummary:
		return "lay_summ"
	case OpenReport:
		return "open_rrg"
	case ClosedReport:
		return "close_rrg"
	default:
		return fmt.Sprintf("Task(%d)", int(t))
	}
}

// SubCorpus names one prediction/reference file pair of a task.
type SubCorpus struct {
	Name           string
	PredictionFile string
	ReferenceFile  string
}

// SubCorpora lists the task's sub-corpora in evaluation order.
func (t Task) SubCorpora() ([]SubCorpus, error) {
	switch t {
	case LaySummary:
		return []SubCorpus{
			{Name: "eLife", PredictionFile: "elife.txt", ReferenceFile: "eLife_test.jsonl"},
			{Name: "PLOS", PredictionFile: "plos.txt", ReferenceFile: "PLOS_test.jsonl"},
		}, nil
	case OpenReport:
		return []SubCorpus{
			{Name: "open_rrg", PredictionFile: "open_rrg.txt", ReferenceFile: "OPEN_test.jsonl"},
		}, nil
	case ClosedReport:
		return []SubCorpus{
			{Name: "close_rrg", PredictionFile: "close_rrg.txt", ReferenceFile: "CLOSE_test.jsonl"},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported task %v", t)
	}
}

// RequiresDocument reports whether references must carry a source document.
func (t Task) RequiresDocument() (bool, error) {
	switch t {
	case LaySummary:
		return true, nil
	case OpenReport, ClosedReport:
		return false, nil
	default:
		return false, fmt.Errorf("unsupported task %v", t)
	}
}

// Metric identifiers, in report order.
const (
	MetricROUGE       = "rouge"
	MetricBLEU        = "bleu"
	MetricMETEOR      = "meteor"
	MetricBERTScore   = "bertscore"
	MetricReadability = "readability"
	MetricLENS        = "lens"
	MetricAlignScore  = "alignscore"
	MetricSummaC      = "summac"
	MetricSimilarity  = "similarity"
	MetricRadGraph    = "radgraph"
	MetricF1CheXbert  = "f1chexbert"
)

// ReportKeys maps each metric to the report keys its adapter produces.
var ReportKeys = map[string][]string{
	MetricROUGE:       {"ROUGE"},
	MetricBLEU:        {"BLEU"},
	MetricMETEOR:      {"METEOR"},
	MetricBERTScore:   {"BERTScore"},
	MetricReadability: {"FKGL", "DCRS", "CLI"},
	MetricLENS:        {"LENS"},
	MetricAlignScore:  {"AlignScore"},
	MetricSummaC:      {"SummaC"},
	MetricSimilarity:  {"similarity"},
	MetricRadGraph:    {"radgraph"},
	MetricF1CheXbert:  {"f1chexbert"},
}

var commonMetrics = []string{MetricROUGE, MetricBLEU, MetricMETEOR, MetricBERTScore, MetricReadability}

// Metrics lists the metrics evaluated for the task, common ones first.
func (t Task) Metrics() ([]string, error) {
	out := append([]string(nil), commonMetrics...)
	switch t {
	case LaySummary:
		return append(out, MetricLENS, MetricAlignScore, MetricSummaC), nil
	case OpenReport, ClosedReport:
		return append(out, MetricSimilarity, MetricRadGraph, MetricF1CheXbert), nil
	default:
		return nil, fmt.Errorf("unsupported task %v", t)
	}
}

// Chunks splits a loaded sub-corpus into the pieces that are scored
// separately and then averaged. ClosedReport is split positionally at
// boundary; an empty second chunk is dropped.
func (t Task) Chunks(c *corpus.Corpus, boundary int) ([]*corpus.Corpus, error) {
	switch t {
	case LaySummary, OpenReport:
		return []*corpus.Corpus{c}, nil
	case ClosedReport:
		if boundary <= 0 {
			return nil, fmt.Errorf("closed split boundary must be positive, got %d", boundary)
		}
		n := c.Len()
		if n <= boundary {
			return []*corpus.Corpus{c.Slice("open", 0, n)}, nil
		}
		return []*corpus.Corpus{
			c.Slice("open", 0, boundary),
			c.Slice("closed", boundary, n),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported task %v", t)
	}
}
