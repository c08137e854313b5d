package core

import "errors"

// Sentinel errors for pipeline and service failures. Wrap with %w so
// callers can test with errors.Is.
var (
	// ErrEmptyInput reports input with zero content lines. Individual
	// malformed rows are never fatal; this is the parser's only hard error.
	ErrEmptyInput = errors.New("empty file: no content lines")

	// ErrSeriesNotFound reports a summary request for a title the category
	// does not contain.
	ErrSeriesNotFound = errors.New("series not found")

	// ErrStoreDisabled reports an operation that needs the config store
	// when no database is configured.
	ErrStoreDisabled = errors.New("config store disabled: no database configured")
)
