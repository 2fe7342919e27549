// Package varint implements the LEB128-style variable-length integer
// encoding used by the wire value grammar: 7 payload bits per byte, the
// high bit set on every byte but the last. Signed widths are mapped to
// their unsigned counterpart with a zig-zag transform before encoding.
package varint

import "io"

// maxBytes returns ceil(w/7) for a width w in bits — the longest a
// well-formed encoding of that width is allowed to be.
func maxBytes(width int) int {
	return (width + 6) / 7
}

// EncodeUint16 appends the LEB128 encoding of v to buf and returns the result.
func EncodeUint16(buf []byte, v uint16) []byte {
	return encodeUint(buf, uint64(v))
}

// EncodeUint32 appends the LEB128 encoding of v to buf and returns the result.
func EncodeUint32(buf []byte, v uint32) []byte {
	return encodeUint(buf, uint64(v))
}

// EncodeUint64 appends the LEB128 encoding of v to buf and returns the result.
func EncodeUint64(buf []byte, v uint64) []byte {
	return encodeUint(buf, v)
}

func encodeUint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

// EncodeInt16 zig-zag encodes v and appends its LEB128 form to buf.
func EncodeInt16(buf []byte, v int16) []byte {
	return encodeUint(buf, uint64(zigzag64(int64(v), 16)))
}

// EncodeInt32 zig-zag encodes v and appends its LEB128 form to buf.
func EncodeInt32(buf []byte, v int32) []byte {
	return encodeUint(buf, uint64(zigzag64(int64(v), 32)))
}

// EncodeInt64 zig-zag encodes v and appends its LEB128 form to buf.
func EncodeInt64(buf []byte, v int64) []byte {
	return encodeUint(buf, zigzag64(v, 64))
}

func zigzag64(n int64, width uint) uint64 {
	return uint64((n << 1) ^ (n >> (width - 1)))
}

func unzigzag64(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// DecodeUint16 reads a LEB128-encoded uint16 from r.
func DecodeUint16(r io.ByteReader) (uint16, error) {
	v, err := decodeUint(r, 16)
	return uint16(v), err
}

// DecodeUint32 reads a LEB128-encoded uint32 from r.
func DecodeUint32(r io.ByteReader) (uint32, error) {
	v, err := decodeUint(r, 32)
	return uint32(v), err
}

// DecodeUint64 reads a LEB128-encoded uint64 from r.
func DecodeUint64(r io.ByteReader) (uint64, error) {
	return decodeUint(r, 64)
}

// DecodeInt16 reads a zig-zag/LEB128-encoded int16 from r.
func DecodeInt16(r io.ByteReader) (int16, error) {
	v, err := decodeUint(r, 16)
	if err != nil {
		return 0, err
	}
	return int16(unzigzag64(v)), nil
}

// DecodeInt32 reads a zig-zag/LEB128-encoded int32 from r.
func DecodeInt32(r io.ByteReader) (int32, error) {
	v, err := decodeUint(r, 32)
	if err != nil {
		return 0, err
	}
	return int32(unzigzag64(v)), nil
}

// DecodeInt64 reads a zig-zag/LEB128-encoded int64 from r.
func DecodeInt64(r io.ByteReader) (int64, error) {
	v, err := decodeUint(r, 64)
	if err != nil {
		return 0, err
	}
	return unzigzag64(v), nil
}

func decodeUint(r io.ByteReader, width int) (uint64, error) {
	var value uint64
	var shift uint
	max := maxBytes(width)

	for i := 0; ; i++ {
		if i >= max {
			return 0, ErrOverlong
		}

		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, ErrUnexpectedEOF
			}
			return 0, err
		}

		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, nil
		}
		shift += 7
	}
}

// DecodeUint16Bytes decodes from the head of data, returning the value and
// the number of bytes consumed.
func DecodeUint16Bytes(data []byte) (uint16, int, error) {
	v, n, err := decodeUintBytes(data, 16)
	return uint16(v), n, err
}

// DecodeUint32Bytes decodes from the head of data, returning the value and
// the number of bytes consumed.
func DecodeUint32Bytes(data []byte) (uint32, int, error) {
	v, n, err := decodeUintBytes(data, 32)
	return uint32(v), n, err
}

// DecodeUint64Bytes decodes from the head of data, returning the value and
// the number of bytes consumed.
func DecodeUint64Bytes(data []byte) (uint64, int, error) {
	return decodeUintBytes(data, 64)
}

// DecodeInt16Bytes decodes a zig-zag int16 from the head of data.
func DecodeInt16Bytes(data []byte) (int16, int, error) {
	v, n, err := decodeUintBytes(data, 16)
	if err != nil {
		return 0, 0, err
	}
	return int16(unzigzag64(v)), n, nil
}

// DecodeInt32Bytes decodes a zig-zag int32 from the head of data.
func DecodeInt32Bytes(data []byte) (int32, int, error) {
	v, n, err := decodeUintBytes(data, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(unzigzag64(v)), n, nil
}

// DecodeInt64Bytes decodes a zig-zag int64 from the head of data.
func DecodeInt64Bytes(data []byte) (int64, int, error) {
	v, n, err := decodeUintBytes(data, 64)
	if err != nil {
		return 0, 0, err
	}
	return unzigzag64(v), n, nil
}

func decodeUintBytes(data []byte, width int) (uint64, int, error) {
	var value uint64
	var shift uint
	max := maxBytes(width)

	for i := 0; i < max; i++ {
		if i >= len(data) {
			return 0, 0, ErrUnexpectedEOF
		}

		b := data[i]
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}

	return 0, 0, ErrOverlong
}

// SizeUint32 returns the number of bytes EncodeUint32 would produce for v.
func SizeUint32(v uint32) int {
	return sizeUint(uint64(v))
}

// SizeUint64 returns the number of bytes EncodeUint64 would produce for v.
func SizeUint64(v uint64) int {
	return sizeUint(v)
}

func sizeUint(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
