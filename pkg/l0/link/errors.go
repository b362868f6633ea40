package link

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkUnavailable indicates no port is held by the link.
	ErrLinkUnavailable = errors.New("link unavailable")
	// ErrMalformedResponse indicates a response which can't be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrTimeout indicates no terminator was received in time.
	ErrTimeout = errors.New("receive timeout")
	// ErrFrameTooLong indicates more bytes than allowed arrived
	// before a terminator.
	ErrFrameTooLong = errors.New("frame too long")
	// ErrInvalidPayload indicates a frame payload which can't be sent.
	ErrInvalidPayload = errors.New("invalid payload")
)

// MalformedError describes a malformed response buffer.
type MalformedError struct {
	Len    int
	Reason string
}

// Error implements error.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response (%d bytes): %s", e.Len, e.Reason)
}

// Is matches ErrMalformedResponse.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedResponse
}
