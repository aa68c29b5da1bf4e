package catalog

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Catalog error codes.
const (
	ErrCodeGeneric     = "C001" // Generic/unknown error
	ErrCodeNoFiles     = "C002" // No CUE files found
	ErrCodeLoadFailed  = "C003" // CUE load failed
	ErrCodeNotFound    = "C004" // Path not found
	ErrCodeBuildFailed = "C005" // CUE build failed
	ErrCodeSchema      = "C101" // Entry does not match the catalog schema
	ErrCodeOptions     = "C102" // Options cannot be decoded
)

// LoadError reports a catalog that cannot be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var target *LoadError
	return errors.As(err, &target)
}

func newLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		if pos := errs[0].Position(); pos.IsValid() {
			le.Pos = pos
		}
	}
	return le
}
