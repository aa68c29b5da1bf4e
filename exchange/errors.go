package exchange

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// HTTPError reports a non-2xx response from the endpoint.
type HTTPError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
	Headers    map[string]string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("exchange: %s: %s", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("exchange: %s: %s: %s", e.Endpoint, e.Status, truncate(e.Body, 200))
}

// IsHTTPError reports whether err is or wraps an *HTTPError.
func IsHTTPError(err error) bool {
	var target *HTTPError
	return errors.As(err, &target)
}

// ResultParseError reports a response that could not be normalized. The
// unparsed response is kept for diagnosis.
type ResultParseError struct {
	Err      error
	Response any
}

// Error implements the error interface.
func (e *ResultParseError) Error() string {
	return "exchange: parse results: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ResultParseError) Unwrap() error {
	return e.Err
}

// IsResultParseError reports whether err is or wraps a *ResultParseError.
func IsResultParseError(err error) bool {
	var target *ResultParseError
	return errors.As(err, &target)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
