package sparql

import (
	"errors"
	"fmt"
)

// ParseError reports source text that is not a valid SPARQL query or
// update. No partial tree is returned alongside a ParseError.
type ParseError struct {
	// Line and Column locate the offending token (1-based).
	Line   int
	Column int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("sparql: %d:%d: %s", e.Line, e.Column, e.Message)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// GenerateError reports a tree that cannot be rendered as query text, such
// as a term with no type or a pattern of unknown form.
type GenerateError struct {
	Message string
}

// Error implements the error interface.
func (e *GenerateError) Error() string {
	return "sparql: generate: " + e.Message
}
