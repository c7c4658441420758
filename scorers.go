// Package medeval scores generated medical text: lay summaries of
// biomedical articles and radiology reports.
//
// Scorer families live in subpackages (heuristic, embedding, llmjudge,
// clinical); this package offers convenience wrappers that bind them to
// their providers once.
package medeval

import (
	language "cloud.google.com/go/language/apiv1"
	"google.golang.org/genai"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/clinical"
	"github.com/datar-psa/medeval/embedding"
	"github.com/datar-psa/medeval/gemini"
	"github.com/datar-psa/medeval/heuristic"
	"github.com/datar-psa/medeval/llmjudge"
)

// LLMJudge wraps an LLM generator and exposes convenient constructors for LLM-as-a-judge scorers.
// It allows creating scorers like Alignment and FactF1 without passing the LLM each time.
type LLMJudge struct {
	llm       api.LLMGenerator
	extractor api.EntityExtractor
}

// LLMJudgeOptions configures LLMJudge creation
type LLMJudgeOptions struct {
	llm       api.LLMGenerator
	extractor api.EntityExtractor
}

// WithLLMGenerator sets the LLM generator for the judge
func WithLLMGenerator(llm api.LLMGenerator) func(*LLMJudgeOptions) {
	return func(opts *LLMJudgeOptions) {
		opts.llm = llm
	}
}

// WithEntityExtractor overrides the extractor used by ObservationOverlap.
// Defaults to the CheXpert observation labeler on the judge's LLM.
func WithEntityExtractor(extractor api.EntityExtractor) func(*LLMJudgeOptions) {
	return func(opts *LLMJudgeOptions) {
		opts.extractor = extractor
	}
}

// NewLLMJudge creates a new Judge wrapper using functional options.
func NewLLMJudge(opts ...func(*LLMJudgeOptions)) *LLMJudge {
	options := &LLMJudgeOptions{}
	for _, opt := range opts {
		opt(options)
	}
	extractor := options.extractor
	if extractor == nil && options.llm != nil {
		extractor = llmjudge.NewObservationLabeler(options.llm)
	}
	return &LLMJudge{
		llm:       options.llm,
		extractor: extractor,
	}
}

// GeminiOptions configures Gemini LLMJudge creation
type GeminiOptions struct {
	genaiClient *genai.Client
	modelName   string
	langClient  *language.Client
	minSalience float64
}

// WithGenaiClient sets the Gemini client for the judge
func WithGenaiClient(client *genai.Client) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.genaiClient = client
	}
}

// WithModelName sets the model name for the judge
func WithModelName(modelName string) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.modelName = modelName
	}
}

// WithLanguageClient makes ObservationOverlap extract entities with the
// Google Cloud Natural Language API instead of the LLM.
func WithLanguageClient(langClient *language.Client, minSalience float64) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.langClient = langClient
		opts.minSalience = minSalience
	}
}

// NewGeminiLLMJudge creates a Judge using Gemini client and model name.
// Example model: "publishers/google/models/gemini-2.5-flash".
func NewGeminiLLMJudge(opts ...func(*GeminiOptions)) *LLMJudge {
	options := &GeminiOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var llmOptions []func(*LLMJudgeOptions)

	// Only add LLM generator if genaiClient is provided
	if options.genaiClient != nil && options.modelName != "" {
		llmOptions = append(llmOptions, WithLLMGenerator(gemini.NewGenerator(options.genaiClient, options.modelName, gemini.WithTemperature(0))))
	}

	if options.langClient != nil {
		llmOptions = append(llmOptions, WithEntityExtractor(gemini.NewLanguageEntityExtractor(options.langClient, options.minSalience)))
	}

	return NewLLMJudge(llmOptions...)
}

type PlausibilityOptions = llmjudge.PlausibilityOptions

// Plausibility returns a scorer rating Output as a lay summary of the article in Input.
func (j *LLMJudge) Plausibility(opts PlausibilityOptions) api.Scorer {
	return llmjudge.Plausibility(j.llm, opts)
}

type AlignmentOptions = llmjudge.AlignmentOptions

// Alignment returns a scorer judging how well Output is supported by the document in Input.
func (j *LLMJudge) Alignment(opts AlignmentOptions) api.Scorer {
	return llmjudge.Alignment(j.llm, opts)
}

type ConsistencyOptions = llmjudge.ConsistencyOptions

// Consistency returns a scorer averaging per-sentence entailment of Output by Input.
func (j *LLMJudge) Consistency(opts ConsistencyOptions) api.Scorer {
	return llmjudge.Consistency(j.llm, opts)
}

type FactF1Options = clinical.FactF1Options

// FactF1 returns a scorer comparing the radiology fact graphs of Output and Expected.
func (j *LLMJudge) FactF1(opts FactF1Options) api.Scorer {
	return clinical.FactF1(llmjudge.NewFactGraphExtractor(j.llm), opts)
}

type EntityOverlapOptions = clinical.EntityOverlapOptions

// ObservationOverlap returns a corpus scorer reporting the micro F1 of the
// clinical observations mentioned in predictions and references.
func (j *LLMJudge) ObservationOverlap(opts EntityOverlapOptions) api.CorpusScorer {
	return clinical.EntityOverlap(j.extractor, opts)
}

// Embedding wraps an embedder and exposes convenient constructors for embedding-based scorers.
type Embedding struct {
	embedder      api.Embedder
	tokenEmbedder api.TokenEmbedder
}

// EmbeddingOptions configures Embedding creation
type EmbeddingOptions struct {
	embedder      api.Embedder
	tokenEmbedder api.TokenEmbedder
}

// WithEmbedder sets the embedder for the embedding scorer
func WithEmbedder(embedder api.Embedder) func(*EmbeddingOptions) {
	return func(opts *EmbeddingOptions) {
		opts.embedder = embedder
	}
}

// WithTokenEmbedder sets the contextual token embedder used by BERTScore
func WithTokenEmbedder(embedder api.TokenEmbedder) func(*EmbeddingOptions) {
	return func(opts *EmbeddingOptions) {
		opts.tokenEmbedder = embedder
	}
}

// NewEmbedding creates a new Embedding wrapper using functional options.
func NewEmbedding(opts ...func(*EmbeddingOptions)) *Embedding {
	options := &EmbeddingOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return &Embedding{embedder: options.embedder, tokenEmbedder: options.tokenEmbedder}
}

// NewGeminiEmbedding creates an Embedding using Gemini client and model name.
// Example model: "text-embedding-005".
func NewGeminiEmbedding(opts ...func(*GeminiOptions)) *Embedding {
	options := &GeminiOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var embeddingOptions []func(*EmbeddingOptions)

	// Only add embedder if genaiClient and modelName are provided
	if options.genaiClient != nil && options.modelName != "" {
		embeddingOptions = append(embeddingOptions, WithEmbedder(gemini.NewEmbedder(options.genaiClient, options.modelName)))
	}

	return NewEmbedding(embeddingOptions...)
}

type EmbeddingSimilarityOptions = embedding.EmbeddingSimilarityOptions

// Similarity returns a scorer that measures semantic similarity using embeddings.
func (e *Embedding) Similarity(opts EmbeddingSimilarityOptions) api.Scorer {
	return embedding.EmbeddingSimilarity(e.embedder, opts)
}

type BERTScoreOptions = embedding.BERTScoreOptions

// BERTScore returns a scorer matching Output and Expected token by token.
func (e *Embedding) BERTScore(opts BERTScoreOptions) api.Scorer {
	return embedding.BERTScore(e.tokenEmbedder, opts)
}

// Heuristic exposes convenient constructors for heuristic scorers.
type Heuristic struct{}

// NewHeuristic creates a new Heuristic.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

type RougeOptions = heuristic.RougeOptions

// Rouge returns a scorer averaging the ROUGE-1, ROUGE-2 and ROUGE-Lsum F-measures.
func (h *Heuristic) Rouge(opts RougeOptions) api.Scorer {
	return heuristic.Rouge(opts)
}

type BLEUOptions = heuristic.BLEUOptions

// BLEU returns a corpus scorer computing sacreBLEU-compatible BLEU.
func (h *Heuristic) BLEU(opts BLEUOptions) api.CorpusScorer {
	return heuristic.BLEU(opts)
}

type MeteorOptions = heuristic.MeteorOptions

// Meteor returns a scorer computing single-reference METEOR.
func (h *Heuristic) Meteor(opts MeteorOptions) api.Scorer {
	return heuristic.Meteor(opts)
}

type ReadabilityIndex = heuristic.ReadabilityIndex

// Readability returns a scorer computing a readability index of Output.
func (h *Heuristic) Readability(index ReadabilityIndex) api.Scorer {
	return heuristic.Readability(index)
}
