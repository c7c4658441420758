// Package corpus loads aligned prediction/reference corpora.
package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datar-psa/medeval/api"
)

// ErrInput marks every failure caused by the caller's input files.
var ErrInput = errors.New("invalid input")

// ParseError reports a malformed line or a missing required field.
type ParseError struct {
	Path string
	// Line is 1-based; 0 means the whole file
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrInput, e.Err} }

// CountMismatchError reports predictions and references of different length.
type CountMismatchError struct {
	Corpus      string
	Predictions int
	References  int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("corpus %s: %d predictions but %d references", e.Corpus, e.Predictions, e.References)
}

func (e *CountMismatchError) Unwrap() error { return ErrInput }

// Line is one line of an input file: raw text, or a decoded JSON object for .jsonl files.
type Line struct {
	Number int
	Text   string
	Object map[string]any
}

// maxLineBytes bounds a single JSON-lines record (documents can be long).
const maxLineBytes = 64 << 20

// ReadLines reads path line by line. For .jsonl files every non-blank line
// is decoded as a JSON object and blank lines are skipped; other files keep
// every line, blank ones included.
func ReadLines(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	jsonl := strings.EqualFold(filepath.Ext(path), ".jsonl")

	var lines []Line
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if !jsonl {
			lines = append(lines, Line{Number: n, Text: text})
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return nil, &ParseError{Path: path, Line: n, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
		if obj == nil {
			return nil, &ParseError{Path: path, Line: n, Err: errors.New("expected a JSON object")}
		}
		lines = append(lines, Line{Number: n, Text: text, Object: obj})
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: n + 1, Err: err}
	}
	return lines, nil
}

// predictionFields are tried in order for .jsonl prediction files.
var predictionFields = []string{"prediction", "generated_caption"}

// LoadPredictions loads one prediction per line, or from the prediction
// field of each record of a .jsonl file.
func LoadPredictions(path string) ([]string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		if l.Object == nil {
			out[i] = l.Text
			continue
		}
		v, err := firstString(l.Object, predictionFields...)
		if err != nil {
			return nil, &ParseError{Path: path, Line: l.Number, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// Reference is one ground-truth record.
type Reference struct {
	Reference string
	// Document is empty unless loaded with requireDocument
	Document string
}

// LoadReferences loads JSON-lines reference records.
func LoadReferences(path string, requireDocument bool) ([]Reference, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}

	out := make([]Reference, len(lines))
	for i, l := range lines {
		if l.Object == nil {
			return nil, &ParseError{Path: path, Line: l.Number, Err: errors.New("references must be a .jsonl file")}
		}
		ref, err := firstString(l.Object, "reference")
		if err != nil {
			return nil, &ParseError{Path: path, Line: l.Number, Err: err}
		}
		out[i].Reference = ref
		if requireDocument {
			doc, err := firstString(l.Object, "document")
			if err != nil {
				return nil, &ParseError{Path: path, Line: l.Number, Err: err}
			}
			out[i].Document = doc
		}
	}
	return out, nil
}

func firstString(obj map[string]any, fields ...string) (string, error) {
	for _, f := range fields {
		raw, ok := obj[f]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("field %q must be a string", f)
		}
		return s, nil
	}
	return "", fmt.Errorf("missing required field %q", fields[0])
}

// Corpus is an aligned, named set of items.
type Corpus struct {
	Name        string
	Predictions []string
	References  []string
	// Documents is nil when the task has no source documents
	Documents []string
}

// New builds a corpus, failing when the counts differ or nothing was loaded.
func New(name string, predictions []string, references []Reference) (*Corpus, error) {
	if len(predictions) != len(references) {
		return nil, &CountMismatchError{Corpus: name, Predictions: len(predictions), References: len(references)}
	}
	if len(predictions) == 0 {
		return nil, fmt.Errorf("%w: corpus %s is empty", ErrInput, name)
	}

	c := &Corpus{
		Name:        name,
		Predictions: predictions,
		References:  make([]string, len(references)),
	}
	hasDocs := false
	for i, r := range references {
		c.References[i] = r.Reference
		if r.Document != "" {
			hasDocs = true
		}
	}
	if hasDocs {
		c.Documents = make([]string, len(references))
		for i, r := range references {
			c.Documents[i] = r.Document
		}
	}
	return c, nil
}

// Load reads a prediction file and a reference file into a corpus.
func Load(name, predictionPath, referencePath string, requireDocument bool) (*Corpus, error) {
	preds, err := LoadPredictions(predictionPath)
	if err != nil {
		return nil, err
	}
	refs, err := LoadReferences(referencePath, requireDocument)
	if err != nil {
		return nil, err
	}
	c, err := New(name, preds, refs)
	if err != nil {
		return nil, err
	}
	if requireDocument && c.Documents == nil {
		c.Documents = make([]string, c.Len())
	}
	return c, nil
}

// Len returns the number of items.
func (c *Corpus) Len() int { return len(c.Predictions) }

// Slice returns the items [lo, hi) as a sub-corpus sharing storage.
func (c *Corpus) Slice(name string, lo, hi int) *Corpus {
	sub := &Corpus{
		Name:        name,
		Predictions: c.Predictions[lo:hi],
		References:  c.References[lo:hi],
	}
	if c.Documents != nil {
		sub.Documents = c.Documents[lo:hi]
	}
	return sub
}

// Inputs returns the corpus in the form corpus scorers consume.
func (c *Corpus) Inputs() api.CorpusInputs {
	return api.CorpusInputs{
		Predictions: c.Predictions,
		References:  c.References,
		Documents:   c.Documents,
	}
}
