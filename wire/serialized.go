package wire

// SerializedValue is an owned byte buffer tagged as "a value": it defers
// deserialization until a typed result is actually needed, and cloning it
// is a cheap slice copy rather than a structural walk, so the broker can
// fan a value out to many subscribers without re-decoding it per target.
type SerializedValue struct {
	buf []byte
}

// Serialize encodes v eagerly and returns the resulting container.
func Serialize(v Value) SerializedValue {
	return SerializedValue{buf: Encode(nil, v)}
}

// SerializedValueFromBytes wraps an already-encoded buffer without copying
// it. The caller must not mutate buf afterwards.
func SerializedValueFromBytes(buf []byte) SerializedValue {
	return SerializedValue{buf: buf}
}

// Bytes returns the raw encoded bytes, including the discriminant byte.
func (s SerializedValue) Bytes() []byte {
	return s.buf
}

// Len reports the size of the encoded buffer.
func (s SerializedValue) Len() int {
	return len(s.buf)
}

// IsEmpty reports whether the container holds no bytes at all — distinct
// from holding an encoded None, which is one byte long.
func (s SerializedValue) IsEmpty() bool {
	return len(s.buf) == 0
}

// Deserialize decodes the contained value using DefaultMaxDepth, requiring
// that no trailing bytes remain.
func (s SerializedValue) Deserialize() (Value, error) {
	return s.DeserializeWithDepth(DefaultMaxDepth)
}

// DeserializeWithDepth decodes the contained value, rejecting nesting
// deeper than maxDepth and any trailing bytes after the value.
func (s SerializedValue) DeserializeWithDepth(maxDepth int) (Value, error) {
	v, n, err := DecodeWithDepth(s.buf, maxDepth)
	if err != nil {
		return nil, err
	}
	if n != len(s.buf) {
		return nil, newDecodeError(ErrTrailingData, DecodeErrorTrailingData, "")
	}
	return v, nil
}

// Clone returns a SerializedValue holding an independent copy of the
// backing bytes — cheap relative to decode+re-encode, and the shape the
// grammar's "cheap cloning for fan-out" requirement calls for.
func (s SerializedValue) Clone() SerializedValue {
	cp := make([]byte, len(s.buf))
	copy(cp, s.buf)
	return SerializedValue{buf: cp}
}
