// Package config loads the evaluation configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Providers of model-backed metrics
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderTEI      = "tei"
	ProviderLanguage = "language"
	ProviderOracle   = "oracle"
)

// DefaultClosedSplit is the boundary between the two closed-report chunks.
const DefaultClosedSplit = 20000

// DefaultOutput is where the report is written when no path is given.
const DefaultOutput = "/output/scores.txt"

// Config is the evaluation configuration: run options, provider
// credentials and the provider chosen for each model-backed metric.
type Config struct {
	Output      string `yaml:"output"`
	ClosedSplit int    `yaml:"closed_split"`
	Parallelism int    `yaml:"parallelism"`
	LogLevel    string `yaml:"log_level"`
	Trace       bool   `yaml:"trace"`
	// MaxDocumentChars truncates the article in AlignScore and SummaC
	// prompts; 0 keeps it whole
	MaxDocumentChars int `yaml:"max_document_chars"`

	Gemini   GeminiConfig   `yaml:"gemini"`
	Language LanguageConfig `yaml:"language"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	TEI      TEIConfig      `yaml:"tei"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// GeminiConfig configures the genai client used for LLM judging and
// Gemini embeddings.
type GeminiConfig struct {
	// Backend is "vertex" (default) or "gemini_api"
	Backend        string `yaml:"backend"`
	Project        string `yaml:"project"`
	Location       string `yaml:"location"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	// EmbeddingTaskType is passed as the embedding task type, e.g. SEMANTIC_SIMILARITY
	EmbeddingTaskType string `yaml:"embedding_task_type"`
	// EmbeddingDimensions truncates embeddings when positive
	EmbeddingDimensions int32 `yaml:"embedding_dimensions"`
}

// LanguageConfig configures entity extraction with the Cloud Natural
// Language API.
type LanguageConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MinSalience float64 `yaml:"min_salience"`
}

// OpenAIConfig configures any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	// MaxRetries is zero unless set; failed requests fail the metric
	MaxRetries int `yaml:"max_retries"`
}

// TEIConfig locates the text-embeddings-inference server.
type TEIConfig struct {
	URL string `yaml:"url"`
	// MaxRetries is zero unless set; failed requests fail the metric
	MaxRetries uint64 `yaml:"max_retries"`
}

// OracleConfig locates the sidecar that computes reference-model metrics.
type OracleConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"`
}

// MetricsConfig selects the provider of every model-backed metric.
type MetricsConfig struct {
	BERTScore  string `yaml:"bertscore"`
	Similarity string `yaml:"similarity"`
	LENS       string `yaml:"lens"`
	AlignScore string `yaml:"alignscore"`
	SummaC     string `yaml:"summac"`
	RadGraph   string `yaml:"radgraph"`
	F1CheXbert string `yaml:"f1chexbert"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the configuration file. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.ClosedSplit == 0 {
		cfg.ClosedSplit = DefaultClosedSplit
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 1
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Gemini.Backend == "" {
		cfg.Gemini.Backend = "vertex"
	}
	if cfg.Gemini.Project == "" {
		cfg.Gemini.Project = os.Getenv("GOOGLE_PROJECT_ID")
	}
	if cfg.Gemini.Location == "" {
		cfg.Gemini.Location = os.Getenv("GOOGLE_REGION")
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.EmbeddingModel == "" {
		cfg.Gemini.EmbeddingModel = "text-embedding-005"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.TEI.URL == "" {
		cfg.TEI.URL = "http://localhost:8080"
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 10 * time.Minute
	}
	if cfg.Metrics.BERTScore == "" {
		cfg.Metrics.BERTScore = ProviderTEI
	}
	if cfg.Metrics.Similarity == "" {
		cfg.Metrics.Similarity = ProviderTEI
	}
	if cfg.Metrics.LENS == "" {
		cfg.Metrics.LENS = ProviderGemini
	}
	if cfg.Metrics.AlignScore == "" {
		cfg.Metrics.AlignScore = ProviderGemini
	}
	if cfg.Metrics.SummaC == "" {
		cfg.Metrics.SummaC = ProviderGemini
	}
	if cfg.Metrics.RadGraph == "" {
		cfg.Metrics.RadGraph = ProviderGemini
	}
	if cfg.Metrics.F1CheXbert == "" {
		cfg.Metrics.F1CheXbert = ProviderGemini
	}
}

var allowedProviders = map[string][]string{
	"bertscore":  {ProviderTEI, ProviderOracle},
	"similarity": {ProviderTEI, ProviderGemini, ProviderOpenAI, ProviderOracle},
	"lens":       {ProviderGemini, ProviderOpenAI, ProviderOracle},
	"alignscore": {ProviderGemini, ProviderOpenAI, ProviderOracle},
	"summac":     {ProviderGemini, ProviderOpenAI, ProviderOracle},
	"radgraph":   {ProviderGemini, ProviderOpenAI, ProviderOracle},
	"f1chexbert": {ProviderGemini, ProviderOpenAI, ProviderLanguage, ProviderOracle},
}

// Validate checks value ranges and provider choices.
func (c *Config) Validate() error {
	var problems []string
	if c.ClosedSplit < 1 {
		problems = append(problems, "closed_split must be positive")
	}
	if c.Parallelism < 1 {
		problems = append(problems, "parallelism must be at least 1")
	}
	if c.MaxDocumentChars < 0 {
		problems = append(problems, "max_document_chars must not be negative")
	}
	if c.Gemini.EmbeddingDimensions < 0 {
		problems = append(problems, "gemini.embedding_dimensions must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	switch c.Gemini.Backend {
	case "vertex", "gemini_api":
	default:
		problems = append(problems, fmt.Sprintf("gemini.backend %q must be vertex or gemini_api", c.Gemini.Backend))
	}

	for metric, provider := range c.Metrics.byName() {
		if !slices.Contains(allowedProviders[metric], provider) {
			problems = append(problems, fmt.Sprintf("metrics.%s: provider %q must be one of %s", metric, provider, strings.Join(allowedProviders[metric], ", ")))
		}
		if provider == ProviderOracle && c.Oracle.URL == "" {
			problems = append(problems, fmt.Sprintf("metrics.%s uses the oracle but oracle.url is empty", metric))
		}
		if provider == ProviderLanguage && !c.Language.Enabled {
			problems = append(problems, fmt.Sprintf("metrics.%s uses the language API but language.enabled is false", metric))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func (m MetricsConfig) byName() map[string]string {
	return map[string]string{
		"bertscore":  m.BERTScore,
		"similarity": m.Similarity,
		"lens":       m.LENS,
		"alignscore": m.AlignScore,
		"summac":     m.SummaC,
		"radgraph":   m.RadGraph,
		"f1chexbert": m.F1CheXbert,
	}
}

// Provider returns the provider configured for metric, or "" for metrics
// computed natively.
func (m MetricsConfig) Provider(metric string) string {
	return m.byName()[metric]
}

// Uses reports whether any metric is served by provider.
func (m MetricsConfig) Uses(provider string) bool {
	for _, p := range m.byName() {
		if p == provider {
			return true
		}
	}
	return false
}

// Marshal renders the effective configuration, for debug logging.
func (c *Config) Marshal() ([]byte, error) {
	redacted := *c
	if redacted.Gemini.APIKey != "" {
		redacted.Gemini.APIKey = "***"
	}
	if redacted.OpenAI.APIKey != "" {
		redacted.OpenAI.APIKey = "***"
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(redacted); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
