package heuristic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jdkato/prose/summarize"

	"github.com/datar-psa/medeval/api"
)

// ReadabilityIndex selects a readability formula.
type ReadabilityIndex string

const (
	// FleschKincaidGrade estimates the US school grade needed to read the text
	FleschKincaidGrade ReadabilityIndex = "FKGL"
	// DaleChall scores vocabulary difficulty against the Dale-Chall easy word list
	DaleChall ReadabilityIndex = "DCRS"
	// ColemanLiau estimates grade level from letters and sentences per 100 words
	ColemanLiau ReadabilityIndex = "CLI"
)

// Readability returns a scorer that computes the given readability index of Output.
// Output without any word scores 0.
func Readability(index ReadabilityIndex) api.Scorer {
	return &readabilityScorer{index: index}
}

type readabilityScorer struct {
	index ReadabilityIndex
}

func (s *readabilityScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     string(s.index),
		Metadata: make(map[string]any),
	}

	if strings.TrimSpace(in.Output) == "" {
		result.Score = 0
		return result
	}

	doc := summarize.NewDocument(in.Output)
	result.Metadata["words"] = doc.NumWords
	result.Metadata["sentences"] = doc.NumSentences
	if doc.NumWords == 0 || doc.NumSentences == 0 {
		result.Score = 0
		return result
	}

	var value float64
	switch s.index {
	case FleschKincaidGrade:
		value = doc.FleschKincaid()
	case DaleChall:
		value = doc.DaleChall()
	case ColemanLiau:
		value = doc.ColemanLiau()
	default:
		result.Error = fmt.Errorf("unknown readability index %q", s.index)
		return result
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}

	result.Score = value
	return result
}
