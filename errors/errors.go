package errors

import (
	"errors"
	"fmt"
)

// Error categories used across the answer pipeline. A stage that comes up
// empty is not a failure: ErrNoMatch signals normal escalation to the next
// fallback stage.

var (
	// ErrNoMatch indicates no knowledge entry or document scored above threshold
	ErrNoMatch = errors.New("no match above threshold")

	// ErrExternalService indicates a search, translation or LLM provider call failed
	ErrExternalService = errors.New("external service failure")

	// ErrCorpusRead indicates a single corpus file could not be read or parsed
	ErrCorpusRead = errors.New("corpus read failure")

	// ErrConfigMissing indicates the knowledge file or document folder is absent
	ErrConfigMissing = errors.New("configuration missing")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")
)

// WrapError wraps an error with a context message
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with a formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsNoMatch checks if error signals a below-threshold result
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}

// IsExternalService checks if error came from a remote collaborator
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService)
}

// IsConfigMissing checks if error is a missing configuration error
func IsConfigMissing(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}
