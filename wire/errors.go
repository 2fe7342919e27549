package wire

import "errors"

var (
	// ErrInvalidSerialization is returned when a required field is absent
	// from a decoded struct or an encoding is otherwise self-inconsistent.
	ErrInvalidSerialization = errors.New("wire: invalid serialization")

	// ErrUnexpectedValue is returned when a discriminant byte does not name
	// a known ValueKind.
	ErrUnexpectedValue = errors.New("wire: unexpected value kind")

	// ErrUnexpectedEOI is returned when a value's payload is truncated.
	ErrUnexpectedEOI = errors.New("wire: unexpected end of input")

	// ErrTooDeeplyNested is returned when decoding would exceed the
	// configured maximum recursion depth.
	ErrTooDeeplyNested = errors.New("wire: value nested too deeply")

	// ErrTrailingData is returned when bytes remain after a top-level value
	// has been fully decoded.
	ErrTrailingData = errors.New("wire: trailing data after value")

	// ErrInvalidUTF8 is returned when a String value's payload is not
	// well-formed UTF-8.
	ErrInvalidUTF8 = errors.New("wire: invalid UTF-8 in string value")
)

// DecodeError wraps a decoding failure with the kind of problem encountered,
// mirroring the taxonomy of decode errors that error handling design
// requires to be surfaced as distinct kinds.
type DecodeError struct {
	Err     error
	Kind    DecodeErrorKind
	Message string
}

// DecodeErrorKind classifies a DecodeError for programmatic handling.
type DecodeErrorKind uint8

const (
	DecodeErrorInvalidSerialization DecodeErrorKind = iota
	DecodeErrorUnexpectedValue
	DecodeErrorUnexpectedEOI
	DecodeErrorTooDeeplyNested
	DecodeErrorTrailingData
)

func (e *DecodeError) Error() string {
	if e.Message != "" {
		return e.Err.Error() + ": " + e.Message
	}
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(err error, kind DecodeErrorKind, message string) *DecodeError {
	return &DecodeError{Err: err, Kind: kind, Message: message}
}

// GetDecodeErrorKind extracts the DecodeErrorKind from err if it (or
// something it wraps) is a *DecodeError, defaulting to
// DecodeErrorInvalidSerialization otherwise.
func GetDecodeErrorKind(err error) DecodeErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return DecodeErrorInvalidSerialization
}
