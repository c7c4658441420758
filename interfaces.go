package medeval

import (
	"github.com/datar-psa/medeval/api"
)

type Score = api.Score
type ScoreInputs = api.ScoreInputs
type Scorer = api.Scorer
type CorpusInputs = api.CorpusInputs
type CorpusScorer = api.CorpusScorer

type LLMGenerator = api.LLMGenerator
type Embedder = api.Embedder
type TokenEmbedder = api.TokenEmbedder
type EntityExtractor = api.EntityExtractor
type Entity = api.Entity
type FactExtractor = api.FactExtractor
type FactGraph = api.FactGraph
type FactEntity = api.FactEntity
type FactRelation = api.FactRelation

// Averaged lifts a per-item Scorer into a CorpusScorer reporting the mean item score.
var Averaged = api.Averaged
