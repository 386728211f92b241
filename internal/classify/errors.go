package classify

import (
	"errors"
	"fmt"
)

// ParseError indicates that the provider responded but the response
// could not be validated against the expected schema (wrong entry
// count, unknown category, or no parseable structure). The whole
// batch falls back to the rule-based classifier; a structurally
// invalid response is never partially trusted.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("classification parse error: %s", e.Reason)
}

// IsParseError reports whether err (or any error in its chain) is a
// ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// ProviderError indicates a transient network, timeout, or server
// failure from the classification provider. The batch falls back to
// the rule-based classifier; the run continues.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("classification provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UnauthorizedError indicates a definitive credential rejection from
// the provider. It disables the AI path for the remainder of the run;
// retrying every subsequent batch against a known-bad key wastes time
// and quota.
type UnauthorizedError struct {
	Err error
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("classification provider rejected credentials: %v", e.Err)
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err (or any error in its chain) is an
// UnauthorizedError.
func IsUnauthorized(err error) bool {
	var authErr *UnauthorizedError
	return errors.As(err, &authErr)
}
