// Package sentence splits English text into sentences with the Punkt model
// shipped by github.com/neurosnap/sentences, approximating NLTK's sent_tokenize.
package sentence

import (
	"fmt"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	sentencesdata "github.com/neurosnap/sentences/data"
)

var (
	englishOnce      sync.Once
	englishTokenizer *sentences.DefaultSentenceTokenizer
	englishErr       error
)

func loadEnglish() (*sentences.DefaultSentenceTokenizer, error) {
	englishOnce.Do(func() {
		b, err := sentencesdata.Asset("data/english.json")
		if err != nil {
			englishErr = fmt.Errorf("load english punkt data: %w", err)
			return
		}
		training, err := sentences.LoadTraining(b)
		if err != nil {
			englishErr = fmt.Errorf("parse english punkt data: %w", err)
			return
		}
		englishTokenizer = sentences.NewSentenceTokenizer(training)
	})
	return englishTokenizer, englishErr
}

// Split returns the trimmed, non-empty sentences of text.
func Split(text string) ([]string, error) {
	tok, err := loadEnglish()
	if err != nil {
		return nil, err
	}

	raw := tok.Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out, nil
}
