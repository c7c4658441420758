package api

import "errors"

var (
	// ErrNoExpectedValue is returned when an expected value is required but not provided
	ErrNoExpectedValue = errors.New("expected value is required for this scorer")
	// ErrNoDocument is returned when a source document is required but not provided
	ErrNoDocument = errors.New("source document is required for this scorer")
	// ErrLLMGenerationFailed is returned when LLM generation fails
	ErrLLMGenerationFailed = errors.New("LLM generation failed")
	// ErrProviderRequired is returned when a scorer was built without its provider
	ErrProviderRequired = errors.New("scoring provider is required")
	// ErrEmptyCorpus is returned when a corpus scorer receives no items
	ErrEmptyCorpus = errors.New("corpus is empty")
	// ErrMisalignedCorpus is returned when corpus fields differ in length
	ErrMisalignedCorpus = errors.New("corpus fields are not aligned")
)
