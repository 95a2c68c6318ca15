package ingest

import (
	"errors"
	"fmt"
)

// ParseErrorCode classifies ingestion failures. The set is closed.
type ParseErrorCode string

const (
	// CodeEmptyFile means no non-blank lines remained after splitting.
	CodeEmptyFile ParseErrorCode = "empty_file"
	// CodeUnsupportedType means neither the extension nor the declared
	// content type indicated delimited text.
	CodeUnsupportedType ParseErrorCode = "unsupported_type"
	// CodeSizeExceeded means the declared size was over the ceiling.
	CodeSizeExceeded ParseErrorCode = "size_exceeded"
)

// ParseError is a structured ingestion error with a user-facing message.
type ParseError struct {
	Code    ParseErrorCode
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newParseError(code ParseErrorCode, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ParseErrorCode from an error. Returns "" when the
// error is not a *ParseError.
func CodeOf(err error) ParseErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
