package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session package.
var (
	// ErrNotConnected indicates an operation requiring a live channel
	// was invoked outside the Connected state. Caller bug; surfaced,
	// not retried.
	ErrNotConnected = errors.New("session: not connected")

	// ErrAlreadyConnected indicates Connect was called on a live session.
	ErrAlreadyConnected = errors.New("session: already connected")

	// ErrMicrophoneAccess indicates no microphone source is available.
	// Listening stays off; the session itself is unaffected.
	ErrMicrophoneAccess = errors.New("session: microphone access denied")
)

// CredentialError indicates the token exchange failed. Fatal to the
// connect attempt; the caller must retry connect.
type CredentialError struct {
	// Cause is the underlying issuer error.
	Cause error
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	return fmt.Sprintf("session: credential exchange failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *CredentialError) Unwrap() error {
	return e.Cause
}

// ChannelError indicates the duplex channel failed to open or closed
// abnormally. Recoverable by calling Connect again.
type ChannelError struct {
	// Reason describes what the channel was doing when it failed.
	Reason string

	// Cause is the underlying transport error.
	Cause error
}

// Error implements the error interface.
func (e *ChannelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session: channel %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("session: channel %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ChannelError) Unwrap() error {
	return e.Cause
}

// Error checking helpers.

// IsCredentialError reports whether err came from the token exchange.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// IsChannelError reports whether err came from the transport.
func IsChannelError(err error) bool {
	var ce *ChannelError
	return errors.As(err, &ce)
}
