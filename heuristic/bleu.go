package heuristic

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/datar-psa/medeval/api"
)

const bleuMaxOrder = 4

// mteval-v13a normalization rules, applied in order.
var tok13aRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("([\\{-\\~\\[-\\` -\\&\\(-\\+\\:-\\@\\/])"), " ${1} "},
	{regexp.MustCompile(`([^0-9])([\.,])`), "${1} ${2} "},
	{regexp.MustCompile(`([\.,])([^0-9])`), " ${1} ${2}"},
	{regexp.MustCompile(`([0-9])(-)`), "${1} ${2} "},
}

var tok13aEntities = strings.NewReplacer("&quot;", `"`, "&amp;", "&", "&lt;", "<", "&gt;", ">")

// Tokenize13a reproduces the default sacreBLEU tokenizer.
func Tokenize13a(line string) string {
	line = strings.ReplaceAll(line, "<skipped>", "")
	line = strings.ReplaceAll(line, "-\n", "")
	line = strings.ReplaceAll(line, "\n", " ")
	if strings.Contains(line, "&") {
		line = tok13aEntities.Replace(line)
	}
	line = " " + line + " "
	for _, rule := range tok13aRules {
		line = rule.re.ReplaceAllString(line, rule.repl)
	}
	return strings.Join(strings.Fields(line), " ")
}

// BLEUOptions configures the BLEU scorer
type BLEUOptions struct {
	// Lowercase compares lowercased text
	Lowercase bool
}

// BLEU returns a corpus scorer computing sacreBLEU-compatible corpus BLEU
// (13a tokenization, exponential smoothing) on a 0-100 scale.
func BLEU(opts BLEUOptions) api.CorpusScorer {
	return &bleuScorer{opts: opts}
}

type bleuScorer struct {
	opts BLEUOptions
}

// BLEUStats accumulates the sufficient statistics of corpus BLEU.
type BLEUStats struct {
	SysLen  int
	RefLen  int
	Correct [bleuMaxOrder]int
	Total   [bleuMaxOrder]int
}

func (s *bleuScorer) ScoreCorpus(ctx context.Context, in api.CorpusInputs) []api.Score {
	result := api.Score{
		Name:     "BLEU",
		Metadata: make(map[string]any),
	}

	if err := in.Validate(); err != nil {
		result.Error = err
		return []api.Score{result}
	}

	var stats BLEUStats
	for i := 0; i < in.Len(); i++ {
		if err := ctx.Err(); err != nil {
			result.Error = err
			return []api.Score{result}
		}
		hyp, ref := in.Predictions[i], in.References[i]
		if s.opts.Lowercase {
			hyp, ref = strings.ToLower(hyp), strings.ToLower(ref)
		}
		stats.Add(strings.Fields(Tokenize13a(hyp)), strings.Fields(Tokenize13a(ref)))
	}

	score, precisions, bp := stats.Compute()
	result.Score = score
	result.Metadata["precisions"] = precisions
	result.Metadata["brevity_penalty"] = bp
	result.Metadata["sys_len"] = stats.SysLen
	result.Metadata["ref_len"] = stats.RefLen
	return []api.Score{result}
}

// Add accumulates the clipped n-gram matches of one segment.
func (s *BLEUStats) Add(hyp, ref []string) {
	s.SysLen += len(hyp)
	s.RefLen += len(ref)
	for n := 1; n <= bleuMaxOrder; n++ {
		hypCounts := ngramCounts(hyp, n)
		refCounts := ngramCounts(ref, n)
		for gram, cnt := range hypCounts {
			s.Correct[n-1] += min(cnt, refCounts[gram])
		}
		if len(hyp) >= n {
			s.Total[n-1] += len(hyp) - n + 1
		}
	}
}

// Compute returns the BLEU score, the per-order precisions and the brevity penalty.
func (s *BLEUStats) Compute() (float64, []float64, float64) {
	precisions := make([]float64, bleuMaxOrder)

	anyCorrect := false
	for _, c := range s.Correct {
		if c > 0 {
			anyCorrect = true
			break
		}
	}
	if !anyCorrect {
		return 0, precisions, 0
	}

	smooth := 1.0
	for n := 0; n < bleuMaxOrder; n++ {
		if s.Total[n] == 0 {
			break
		}
		if s.Correct[n] == 0 {
			smooth *= 2
			precisions[n] = 100 / (smooth * float64(s.Total[n]))
			continue
		}
		precisions[n] = 100 * float64(s.Correct[n]) / float64(s.Total[n])
	}

	bp := 1.0
	if s.SysLen < s.RefLen {
		bp = 0
		if s.SysLen > 0 {
			bp = math.Exp(1 - float64(s.RefLen)/float64(s.SysLen))
		}
	}

	var logSum float64
	for _, p := range precisions {
		if p == 0 {
			logSum += -9999999999
			continue
		}
		logSum += math.Log(p)
	}
	return bp * math.Exp(logSum/bleuMaxOrder), precisions, bp
}
