package cypher

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery means the model produced no query text.
	ErrEmptyQuery = errors.New("cypher: model returned an empty query")

	// ErrUnsafeQuery means a query would write to the graph or is not a query at all.
	ErrUnsafeQuery = errors.New("cypher: query is not read-only")
)

// UnsafeQueryError names the clause that failed validation.
type UnsafeQueryError struct {
	Clause string
	Query  string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("cypher: query is not read-only: %s", e.Clause)
}

func (e *UnsafeQueryError) Is(target error) bool {
	return target == ErrUnsafeQuery
}
