package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a CSV header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNotDocx is returned when a file has no word/document.xml part.
	ErrNotDocx = errors.New("not a docx document")
)

// ParseError reports where in a source file parsing failed.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
	case e.Path != "":
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("parse line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("parse: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }
