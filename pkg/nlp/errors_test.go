package nlp_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitError(t *testing.T) {
	t.Run("default message", func(t *testing.T) {
		err := nlp.NewRateLimitError()
		assert.Equal(t, "rate limit exceeded. Please try again later", err.Error())
	})

	t.Run("custom message", func(t *testing.T) {
		customMessage := "Custom rate limit message"
		err := nlp.NewRateLimitError(customMessage)
		assert.Equal(t, customMessage, err.Error())
	})

	t.Run("matches sentinel", func(t *testing.T) {
		err := fmt.Errorf("gemini: %w", nlp.NewRateLimitError("slow down"))
		assert.True(t, errors.Is(err, nlp.ErrRateLimit))
		assert.False(t, errors.Is(err, nlp.ErrRefusal))
	})
}

func TestRefusalError(t *testing.T) {
	message := "The LLM refused to respond to this prompt."
	err := nlp.NewRefusalError(message)
	assert.Equal(t, message, err.Error())
	assert.ErrorIs(t, err, nlp.ErrRefusal)
}

func TestEmptyResponseError(t *testing.T) {
	message := "The LLM returned an empty response."
	err := nlp.NewEmptyResponseError(message)
	assert.Equal(t, message, err.Error())
	assert.ErrorIs(t, err, nlp.ErrEmptyResponse)
}

func TestStatusError(t *testing.T) {
	err := &nlp.StatusError{StatusCode: 503, Body: "overloaded"}
	assert.Equal(t, "API request failed with status 503: overloaded", err.Error())
	assert.Equal(t, 503, err.HTTPStatusCode())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", nlp.Kind(nil))
	assert.Equal(t, "rate_limit", nlp.Kind(nlp.NewRateLimitError()))
	assert.Equal(t, "refusal", nlp.Kind(nlp.NewRefusalError("x")))
	assert.Equal(t, "empty_response", nlp.Kind(nlp.NewEmptyResponseError("x")))
	assert.Equal(t, "unavailable", nlp.Kind(fmt.Errorf("%w: down", nlp.ErrUnavailable)))
	assert.Equal(t, "unknown", nlp.Kind(errors.New("boom")))
}
