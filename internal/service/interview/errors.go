package interview

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("session not found")
	ErrCapability = errors.New("capability failure")
	ErrRecorder   = errors.New("transcript recorder failure")

	// ErrTranscriptionDisabled is returned by SubmitAudio when no transcriber is configured.
	ErrTranscriptionDisabled = errors.New("transcription is not configured")
)

// CapabilityError reports which external capability failed or timed out.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCapability, e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Is matches ErrCapability so callers need not know the concrete type.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, id)
}
