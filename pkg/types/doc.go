// Package types defines the small set of shared value types used across duocdien.
//
// It contains the chat message and response shapes exchanged with language
// model providers, token accounting, and the context keys used to carry
// request-scoped metadata (request id, session id, request source) through
// the pipeline, the LLM wrappers and the telemetry handler.
package types
