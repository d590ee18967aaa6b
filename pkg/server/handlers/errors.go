package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/duocdien/pkg/cypher"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/pipeline"
	"github.com/soundprediction/duocdien/pkg/search"
	"github.com/soundprediction/duocdien/pkg/server/dto"
	"github.com/soundprediction/duocdien/pkg/types"
)

// writeError writes an error response as JSON
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error:     code,
		Message:   message,
		Code:      status,
		RequestID: types.StringFromContext(c.Request.Context(), types.ContextKeyRequestID),
	})
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrEmptyQuestion):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, search.ErrInvalidTopK):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, cypher.ErrUnsafeQuery):
		return http.StatusUnprocessableEntity, "unsafe_query"
	case errors.Is(err, cypher.ErrEmptyQuery):
		return http.StatusUnprocessableEntity, "empty_query"
	case errors.Is(err, pipeline.ErrCypherDisabled):
		return http.StatusNotImplemented, "cypher_disabled"
	case errors.Is(err, nlp.ErrRateLimit):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, nlp.ErrRefusal):
		return http.StatusUnprocessableEntity, "refused"
	case errors.Is(err, types.ErrUpstreamUnavailable), errors.Is(err, nlp.ErrUnavailable):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
