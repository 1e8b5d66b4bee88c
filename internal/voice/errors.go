package voice

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a request the caller must fix before retrying.
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// SynthesisError is a failure inside a TTS backend.
type SynthesisError struct {
	Model string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("TTS generation failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// StorageError is a failure persisting audio.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("Storage save failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
