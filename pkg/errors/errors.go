package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeHTTPStatus ErrorType = "http_status"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeNavigation ErrorType = "navigation"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a typed failure with an optional HTTP status code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error wrapping cause
func New(t ErrorType, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// IsFatal reports whether an error type aborts a whole run.
// Only render/navigation failures do; everything else is handled where it happens.
func IsFatal(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNavigation:
		return true
	default:
		return false
	}
}

// IsAcceptableStatusCode checks if an HTTP status code carries media content
func IsAcceptableStatusCode(statusCode int) bool {
	switch statusCode {
	case 200, 206: // full content or range response
		return true
	default:
		return false
	}
}
