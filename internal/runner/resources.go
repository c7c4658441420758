package runner

import (
	"context"
	"fmt"
	"net/http"
	"time"

	language "cloud.google.com/go/language/apiv1"
	"github.com/hashicorp/go-multierror"
	"github.com/openai/openai-go/option"
	gapioption "google.golang.org/api/option"
	"google.golang.org/genai"

	"github.com/datar-psa/medeval/api"
	"github.com/datar-psa/medeval/gemini"
	"github.com/datar-psa/medeval/internal/config"
	"github.com/datar-psa/medeval/internal/telemetry"
	"github.com/datar-psa/medeval/llmjudge"
	"github.com/datar-psa/medeval/openai"
	"github.com/datar-psa/medeval/tei"
)

// Resources holds the provider clients of one run. Clients are created
// only for providers the task's metrics actually use.
type Resources struct {
	cfg      *config.Config
	genai    *genai.Client
	language *language.Client
	tei      *tei.Client
}

// OpenResources acquires the clients needed to compute metrics.
func OpenResources(ctx context.Context, cfg *config.Config, metrics []string) (*Resources, error) {
	r := &Resources{cfg: cfg}

	needed := make(map[string]bool)
	for _, m := range metrics {
		if p := cfg.Metrics.Provider(m); p != "" {
			needed[p] = true
		}
	}

	if needed[config.ProviderGemini] {
		client, err := newGenaiClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		r.genai = client
	}
	if needed[config.ProviderLanguage] {
		var opts []gapioption.ClientOption
		if cfg.Gemini.Project != "" {
			opts = append(opts, gapioption.WithQuotaProject(cfg.Gemini.Project))
		}
		client, err := language.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create language client: %w", err)
		}
		r.language = client
	}
	if needed[config.ProviderTEI] {
		r.tei = tei.NewClient(cfg.TEI.URL,
			tei.WithHTTPClient(telemetry.HTTPClient(&http.Client{Timeout: 60 * time.Second})),
			tei.WithMaxRetries(cfg.TEI.MaxRetries),
		)
	}
	return r, nil
}

func newGenaiClient(ctx context.Context, cfg config.GeminiConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  cfg.Project,
		Location: cfg.Location,
	}
	if cfg.Backend == "gemini_api" {
		cc = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  cfg.APIKey,
		}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// Close releases the clients that hold connections.
func (r *Resources) Close() error {
	var merr *multierror.Error
	if r.language != nil {
		if err := r.language.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("close language client: %w", err))
		}
		r.language = nil
	}
	return merr.ErrorOrNil()
}

// LLM returns the structured-output generator of provider.
func (r *Resources) LLM(provider string) (api.LLMGenerator, error) {
	switch provider {
	case config.ProviderGemini:
		if r.genai == nil {
			return nil, fmt.Errorf("%w: gemini client not opened", api.ErrProviderRequired)
		}
		return gemini.NewGenerator(r.genai, r.cfg.Gemini.Model, gemini.WithTemperature(0)), nil
	case config.ProviderOpenAI:
		return openai.NewGenerator(r.openAIConfig(r.cfg.OpenAI.Model))
	default:
		return nil, fmt.Errorf("%w: %q cannot generate", api.ErrProviderRequired, provider)
	}
}

// Embedder returns the sentence embedder of provider.
func (r *Resources) Embedder(provider string) (api.Embedder, error) {
	switch provider {
	case config.ProviderTEI:
		if r.tei == nil {
			return nil, fmt.Errorf("%w: tei client not opened", api.ErrProviderRequired)
		}
		return r.tei, nil
	case config.ProviderGemini:
		if r.genai == nil {
			return nil, fmt.Errorf("%w: gemini client not opened", api.ErrProviderRequired)
		}
		return gemini.NewEmbedder(r.genai, r.cfg.Gemini.EmbeddingModel, r.geminiEmbedOptions()...), nil
	case config.ProviderOpenAI:
		return openai.NewEmbedder(r.openAIConfig(r.cfg.OpenAI.EmbeddingModel))
	default:
		return nil, fmt.Errorf("%w: %q cannot embed", api.ErrProviderRequired, provider)
	}
}

func (r *Resources) geminiEmbedOptions() []gemini.EmbedderOption {
	var opts []gemini.EmbedderOption
	if r.cfg.Gemini.EmbeddingTaskType != "" {
		opts = append(opts, gemini.WithTaskType(r.cfg.Gemini.EmbeddingTaskType))
	}
	if r.cfg.Gemini.EmbeddingDimensions > 0 {
		opts = append(opts, gemini.WithDimensions(r.cfg.Gemini.EmbeddingDimensions))
	}
	return opts
}

// TokenEmbedder returns the contextual token embedder used by BERTScore.
func (r *Resources) TokenEmbedder() (api.TokenEmbedder, error) {
	if r.tei == nil {
		return nil, fmt.Errorf("%w: tei client not opened", api.ErrProviderRequired)
	}
	return r.tei, nil
}

// EntityExtractor returns the extractor of provider for f1chexbert.
func (r *Resources) EntityExtractor(provider string) (api.EntityExtractor, error) {
	if provider == config.ProviderLanguage {
		if r.language == nil {
			return nil, fmt.Errorf("%w: language client not opened", api.ErrProviderRequired)
		}
		return gemini.NewLanguageEntityExtractor(r.language, r.cfg.Language.MinSalience), nil
	}
	llm, err := r.LLM(provider)
	if err != nil {
		return nil, err
	}
	return llmjudge.NewObservationLabeler(llm), nil
}

func (r *Resources) openAIConfig(model string) openai.Config {
	return openai.Config{
		APIKey:  r.cfg.OpenAI.APIKey,
		BaseURL: r.cfg.OpenAI.BaseURL,
		Model:   model,
		Options: []option.RequestOption{
			option.WithHTTPClient(telemetry.HTTPClient(nil)),
			option.WithMaxRetries(r.cfg.OpenAI.MaxRetries),
		},
	}
}
