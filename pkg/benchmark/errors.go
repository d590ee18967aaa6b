package benchmark

import "errors"

var (
	// ErrMalformedLLMOutput is returned when a rephrase reply has no usable question.
	ErrMalformedLLMOutput = errors.New("malformed LLM output")

	// ErrNoTemplate is returned for a relation (or relation pair) without a question template.
	ErrNoTemplate = errors.New("no question template")
)
