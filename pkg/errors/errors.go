// Package errors provides structured error types for dancespec.
//
// Every failure that aborts an export carries a machine-readable [Code] so
// the CLI and the HTTP API can report it consistently:
//   - INVALID_*: Input validation failures
//   - TEMPLATE_*: The template asset could not be loaded or is incomplete
//   - SCREENSHOT, CAPTURE, EXPORT: Failures while building the deliverables
//   - NOT_FOUND, NETWORK_ERROR, TIMEOUT: Collaborator failures
//
// Recoverable problems (bad numeric input, a font that fails to load) are
// never reported through this package; they degrade the output instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTemplatePage, "template is missing #%s", "page2")
//	if errors.Is(err, errors.ErrCodeTemplatePage) {
//	    // Handle missing container
//	}
//
//	err := errors.Wrap(errors.ErrCodeTemplateLoad, origErr, "fetch %s", url)
//
// Codes are errors themselves, so the standard library works as well:
//
//	stderrors.Is(err, errors.ErrCodeTimeout)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Template errors
	ErrCodeTemplateLoad Code = "TEMPLATE_LOAD"
	ErrCodeTemplatePage Code = "TEMPLATE_PAGE"

	// Export errors
	ErrCodeScreenshot Code = "SCREENSHOT"
	ErrCodeCapture    Code = "CAPTURE"
	ErrCodeExport     Code = "EXPORT"

	// Collaborator errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeTimeout  Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error implements error so a bare Code can be the target of the standard
// library's errors.Is.
func (c Code) Error() string { return string(c) }

// Error carries a Code, a message safe to show users, and the cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches a target Code against e.Code, so errors.Is(err, ErrCodeNotFound)
// finds the code anywhere in the chain.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether code appears anywhere in err's chain.
func Is(err error, code Code) bool {
	return err != nil && errors.Is(err, code)
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the outermost *Error's message without code or cause,
// falling back to err.Error().
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidPath, ErrCodeScreenshot:
		return 400
	case ErrCodeNotFound:
		return 404
	case ErrCodeTimeout:
		return 504
	case ErrCodeNetwork, ErrCodeTemplateLoad:
		return 502
	default:
		return 500
	}
}
