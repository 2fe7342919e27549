package message

import "errors"

var (
	// ErrFrameTooShort is returned when fewer than HeaderLen bytes are
	// available to parse a header.
	ErrFrameTooShort = errors.New("message: frame shorter than header")

	// ErrFrameTooLarge is returned when a header's declared length exceeds
	// the packetizer's configured maximum.
	ErrFrameTooLarge = errors.New("message: frame exceeds maximum length")

	// ErrFrameTooSmallForLength is returned when the header's length field
	// is below the minimum frame length of 5 (the header alone).
	ErrFrameTooSmallForLength = errors.New("message: declared length below minimum frame size")

	// ErrUnknownKind is returned when a header names a kind byte outside
	// the enumerated message set.
	ErrUnknownKind = errors.New("message: unknown message kind")

	// ErrMalformedBody is returned when a message's body does not match
	// the shape its kind requires.
	ErrMalformedBody = errors.New("message: malformed message body")

	// ErrTrailingBytes is returned when a body has bytes left over after
	// every expected field (including any trailing embedded value) has
	// been consumed.
	ErrTrailingBytes = errors.New("message: trailing bytes in message body")
)

// ProtocolError wraps a decode or framing failure that is fatal to the
// connection it was read from, matching the error handling design's
// "protocol errors ... fatal to the offending connection" rule.
type ProtocolError struct {
	Err     error
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return e.Err.Error() + ": " + e.Message
	}
	return e.Err.Error()
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func newProtocolError(err error, message string) *ProtocolError {
	return &ProtocolError{Err: err, Message: message}
}
