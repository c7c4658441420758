package heuristic

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/internal/sentence"
)

// DefaultRougeTypes are the variants averaged into the ROUGE score.
var DefaultRougeTypes = []string{"rouge1", "rouge2", "rougeLsum"}

// RougeOptions configures the Rouge scorer
type RougeOptions struct {
	// RougeTypes lists the variants to average; empty means DefaultRougeTypes
	RougeTypes []string
	// DisableStemmer turns off Porter-family stemming of tokens
	DisableStemmer bool
	// SplitOnNewlines splits summaries on newlines for rougeLsum instead of
	// running the sentence tokenizer
	SplitOnNewlines bool
}

// RougeScore holds precision, recall and F-measure of one ROUGE variant.
type RougeScore struct {
	Precision float64
	Recall    float64
	FMeasure  float64
}

// Rouge returns a scorer reporting the uniform mean of the F-measures of the
// configured ROUGE variants between Output and Expected.
func Rouge(opts RougeOptions) api.Scorer {
	return &rougeScorer{opts: opts}
}

type rougeScorer struct {
	opts RougeOptions
}

func (s *rougeScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "ROUGE",
		Metadata: make(map[string]any),
	}

	// An empty reference shares nothing with the output.
	if in.Expected == "" {
		result.Metadata["empty_expected"] = true
		result.Score = 0
		return result
	}

	rougeTypes := s.opts.RougeTypes
	if len(rougeTypes) == 0 {
		rougeTypes = DefaultRougeTypes
	}

	scores, err := ComputeRouge(in.Expected, in.Output, rougeTypes, !s.opts.DisableStemmer, !s.opts.SplitOnNewlines)
	if err != nil {
		result.Error = err
		result.Score = 0
		return result
	}

	var sum float64
	for _, rougeType := range rougeTypes {
		sc := scores[rougeType]
		sum += sc.FMeasure
		result.Metadata[rougeType+".precision"] = sc.Precision
		result.Metadata[rougeType+".recall"] = sc.Recall
		result.Metadata[rougeType+".fmeasure"] = sc.FMeasure
	}
	result.Score = sum / float64(len(rougeTypes))

	return result
}

// ComputeRouge scores prediction against target for each requested variant.
// Supported variants are rougeN (N >= 1), rougeL and rougeLsum.
func ComputeRouge(target, prediction string, rougeTypes []string, useStemmer, splitSummaries bool) (map[string]RougeScore, error) {
	result := make(map[string]RougeScore, len(rougeTypes))

	var targetTokens, predTokens []string
	tokenized := false
	tokenize := func() {
		if !tokenized {
			targetTokens = rougeTokens(target, useStemmer)
			predTokens = rougeTokens(prediction, useStemmer)
			tokenized = true
		}
	}

	for _, rougeType := range rougeTypes {
		switch rougeType {
		case "rougeL":
			tokenize()
			result[rougeType] = lcsScore(targetTokens, predTokens)
		case "rougeLsum":
			sc, err := summaryLCSScore(target, prediction, useStemmer, splitSummaries)
			if err != nil {
				return nil, err
			}
			result[rougeType] = sc
		default:
			n, err := parseRougeN(rougeType)
			if err != nil {
				return nil, err
			}
			tokenize()
			result[rougeType] = ngramScore(targetTokens, predTokens, n)
		}
	}
	return result, nil
}

func parseRougeN(rougeType string) (int, error) {
	nStr, ok := strings.CutPrefix(rougeType, "rouge")
	if !ok || nStr == "" {
		return 0, fmt.Errorf("invalid rouge type: %s", rougeType)
	}
	n, err := strconv.Atoi(nStr)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid rouge type: %s", rougeType)
	}
	return n, nil
}

func newRougeScore(precision, recall float64) RougeScore {
	sc := RougeScore{Precision: precision, Recall: recall}
	if precision+recall > 0 {
		sc.FMeasure = 2 * precision * recall / (precision + recall)
	}
	return sc
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

func ngramScore(targetTokens, predTokens []string, n int) RougeScore {
	targetCounts := ngramCounts(targetTokens, n)
	predCounts := ngramCounts(predTokens, n)

	var overlap, targetTotal, predTotal int
	for gram, cnt := range targetCounts {
		targetTotal += cnt
		overlap += min(cnt, predCounts[gram])
	}
	for _, cnt := range predCounts {
		predTotal += cnt
	}

	return newRougeScore(
		float64(overlap)/float64(max(predTotal, 1)),
		float64(overlap)/float64(max(targetTotal, 1)),
	)
}

func lcsTable(a, b []string) [][]int {
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}
	return table
}

func lcsScore(targetTokens, predTokens []string) RougeScore {
	if len(targetTokens) == 0 || len(predTokens) == 0 {
		return RougeScore{}
	}
	lcs := lcsTable(targetTokens, predTokens)[len(targetTokens)][len(predTokens)]
	return newRougeScore(
		float64(lcs)/float64(len(predTokens)),
		float64(lcs)/float64(len(targetTokens)),
	)
}

// lcsIndices returns the indices into ref of one longest common subsequence.
func lcsIndices(ref, can []string) []int {
	table := lcsTable(ref, can)
	i, j := len(ref), len(can)
	var idx []int
	for i > 0 && j > 0 {
		switch {
		case ref[i-1] == can[j-1]:
			idx = append(idx, i-1)
			i--
			j--
		case table[i][j-1] > table[i-1][j]:
			j--
		default:
			i--
		}
	}
	sort.Ints(idx)
	return idx
}

func summarySentences(text string, splitSummaries bool) ([]string, error) {
	if splitSummaries {
		return sentence.Split(text)
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

// summaryLCSScore computes rougeLsum: for every reference sentence the
// union of its LCS hits against all candidate sentences is counted, and no
// token is credited more often than it occurs on either side.
func summaryLCSScore(target, prediction string, useStemmer, splitSummaries bool) (RougeScore, error) {
	targetSents, err := summarySentences(target, splitSummaries)
	if err != nil {
		return RougeScore{}, err
	}
	predSents, err := summarySentences(prediction, splitSummaries)
	if err != nil {
		return RougeScore{}, err
	}

	refTokens := make([][]string, 0, len(targetSents))
	refCounts := make(map[string]int)
	var m int
	for _, s := range targetSents {
		toks := rougeTokens(s, useStemmer)
		refTokens = append(refTokens, toks)
		m += len(toks)
		for _, tok := range toks {
			refCounts[tok]++
		}
	}
	canTokens := make([][]string, 0, len(predSents))
	canCounts := make(map[string]int)
	var n int
	for _, s := range predSents {
		toks := rougeTokens(s, useStemmer)
		canTokens = append(canTokens, toks)
		n += len(toks)
		for _, tok := range toks {
			canCounts[tok]++
		}
	}
	if m == 0 || n == 0 {
		return RougeScore{}, nil
	}

	hits := 0
	for _, ref := range refTokens {
		union := make(map[int]struct{})
		for _, can := range canTokens {
			for _, i := range lcsIndices(ref, can) {
				union[i] = struct{}{}
			}
		}
		indices := make([]int, 0, len(union))
		for i := range union {
			indices = append(indices, i)
		}
		sort.Ints(indices)
		for _, i := range indices {
			tok := ref[i]
			if canCounts[tok] > 0 && refCounts[tok] > 0 {
				hits++
				canCounts[tok]--
				refCounts[tok]--
			}
		}
	}

	return newRougeScore(float64(hits)/float64(n), float64(hits)/float64(m)), nil
}
