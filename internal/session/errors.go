package session

import (
	"errors"
	"fmt"
)

// Validation failures. They are reported before any round starts and before
// any persisted state changes.
var (
	ErrEmptyPrompt    = errors.New("user_prompt must not be empty")
	ErrMissingSession = errors.New("session_id must not be empty")
)

// ValidationError marks a request the caller must fix.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// UpstreamError marks a round aborted by the completion backend. Nothing was
// persisted.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("panel round failed: %v", e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
