package search

import (
	"errors"

	"github.com/soundprediction/duocdien/pkg/types"
)

var (
	// ErrUpstreamUnavailable is returned when the query cannot be embedded.
	// There is no lexical-only fallback.
	ErrUpstreamUnavailable = types.ErrUpstreamUnavailable

	// ErrInvalidTopK is returned when topK < 1.
	ErrInvalidTopK = errors.New("topK must be at least 1")
)
