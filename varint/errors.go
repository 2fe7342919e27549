package varint

import "errors"

var (
	// ErrOverlong is returned when a varint's continuation bit is still set
	// after the maximum number of bytes for its width.
	ErrOverlong = errors.New("varint: overlong encoding")

	// ErrUnexpectedEOF is returned when the input ends before a varint's
	// terminating byte is reached.
	ErrUnexpectedEOF = errors.New("varint: unexpected end of input")
)
