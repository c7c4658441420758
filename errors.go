package medeval

import "github.com/datar-psa/medeval/api"

var (
	// ErrNoExpectedValue is returned when an expected value is required but not provided
	ErrNoExpectedValue = api.ErrNoExpectedValue
	// ErrNoDocument is returned when a source document is required but not provided
	ErrNoDocument = api.ErrNoDocument
	// ErrLLMGenerationFailed is returned when LLM generation fails
	ErrLLMGenerationFailed = api.ErrLLMGenerationFailed
	// ErrProviderRequired is returned when a scorer was built without its provider
	ErrProviderRequired = api.ErrProviderRequired
	// ErrEmptyCorpus is returned when a corpus scorer receives no items
	ErrEmptyCorpus = api.ErrEmptyCorpus
	// ErrMisalignedCorpus is returned when corpus fields differ in length
	ErrMisalignedCorpus = api.ErrMisalignedCorpus
)
