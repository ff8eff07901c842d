package session

import "fmt"

// PermissionError means microphone access was denied or unavailable.
// It is fatal to the session and surfaced to the user, never retried.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone access denied or unavailable: %v", e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// RecorderUnavailableError means the host cannot record. Capture
// continues without a saved clip.
type RecorderUnavailableError struct {
	Err error
}

func (e *RecorderUnavailableError) Error() string {
	return fmt.Sprintf("recording unavailable: %v", e.Err)
}

func (e *RecorderUnavailableError) Unwrap() error {
	return e.Err
}
