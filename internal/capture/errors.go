package capture

import (
	"errors"
	"fmt"
)

// Common capture errors
var (
	// ErrMissingAPIKey is returned when OPENAI_API_KEY is not configured.
	ErrMissingAPIKey = errors.New("missing OpenAI API key: set OPENAI_API_KEY environment variable")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrInvalidConfiguration is returned when the Document AI configuration is incomplete.
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrProcessorNotFound is returned when the configured Document AI
	// processor cannot be found or accessed.
	ErrProcessorNotFound = errors.New("Document AI processor not found")

	// ErrExtractionFailed is returned when the model call succeeds but no
	// usable bill data comes back.
	ErrExtractionFailed = errors.New("bill extraction failed")

	// ErrUnreadableResponse is returned when the model reply cannot be
	// parsed as the expected JSON document.
	ErrUnreadableResponse = errors.New("unreadable model response")

	// ErrEmptyAudio is returned when a voice note contains no usable speech.
	ErrEmptyAudio = errors.New("voice note contains no usable speech")
)

// Error wraps capture failures with the operation and extra context.
type Error struct {
	// Op is the operation that failed (e.g., "ExtractInvoice").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("capture: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("capture: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error as an *Error if it isn't already one.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var capErr *Error
	if errors.As(err, &capErr) {
		return err // Already wrapped
	}

	return &Error{Op: op, Err: err, Details: details}
}
