// Package nlp provides language model clients for answer generation,
// text-to-Cypher translation and benchmark question rephrasing.
//
// # Supported Providers
//
//   - Gemini: Google's Gemini models over the generateContent REST API
//   - OpenAI: GPT models, or any OpenAI-compatible endpoint via BaseURL
//
// # Client Wrappers
//
//   - RetryClient: retry with exponential backoff on rate limits and 5xx
//   - CircuitBreakerClient: gobreaker-based fault isolation with alerting
//   - TokenTrackingClient: token usage persisted to Parquet
//
// # Usage
//
//	client, err := nlp.NewClient(nlp.NewLLMConfig().WithModel("gemini-2.5-flash"))
//	client = nlp.NewRetryClient(client, nlp.DefaultRetryConfig(), logger)
//	text, err := nlp.Prompt(ctx, client, "Ho gà là gì?")
//
// # Error Handling
//
// RateLimitError, RefusalError and EmptyResponseError match their sentinel
// counterparts through errors.Is. Transport failures and open circuits wrap
// ErrUnavailable.
package nlp
