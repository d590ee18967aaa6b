package corpus

import (
	"errors"
	"fmt"

	"github.com/soundprediction/duocdien/pkg/types"
)

var (
	// ErrUpstreamUnavailable is returned when the embedding model fails.
	ErrUpstreamUnavailable = types.ErrUpstreamUnavailable

	// ErrDimensionMismatch is returned when vectors disagree in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrColumnNotFound is returned when the requested CSV column is absent.
	ErrColumnNotFound = errors.New("column not found")
)

// DimensionError reports which entry produced a vector of the wrong size.
type DimensionError struct {
	Position int
	Entry    string
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding for entry %d (%q) has %d dimensions, expected %d", e.Position, e.Entry, e.Actual, e.Expected)
}

// Is lets errors.Is match ErrDimensionMismatch.
func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
