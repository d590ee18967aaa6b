package answer

import (
	"fmt"

	"github.com/soundprediction/duocdien/pkg/nlp"
)

// GenerationError reports a failed model call. It unwraps to the nlp error,
// so errors.Is(err, nlp.ErrRateLimit) and friends keep working.
type GenerationError struct {
	Op   string
	Kind string
	Err  error
}

func newGenerationError(op string, err error) *GenerationError {
	return &GenerationError{Op: op, Kind: nlp.Kind(err), Err: err}
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer: %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
