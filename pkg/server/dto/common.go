package dto

import (
	"errors"
	"strings"
)

// Validation errors
var (
	ErrEmptyQuestion   = errors.New("question cannot be empty")
	ErrEmptyQuery      = errors.New("query cannot be empty")
	ErrQuestionTooLong = errors.New("question exceeds maximum length (4096)")
	ErrInvalidMode     = errors.New("invalid mode: must be hybrid or cypher")
	ErrTopKOutOfRange  = errors.New("top_k must be between 1 and 50")
)

// Field limits
const (
	MaxQuestionLength = 4096
	MaxTopK           = 50
)

// Result represents a generic API result
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func validateQuestion(q string) error {
	if strings.TrimSpace(q) == "" {
		return ErrEmptyQuestion
	}
	if len(q) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	return nil
}
