package varint

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeUint32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, 268435455, 1<<32 - 1}

	for _, v := range values {
		buf := EncodeUint32(nil, v)
		got, n, err := DecodeUint32Bytes(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)

		r := bufio.NewReader(bytes.NewReader(buf))
		got2, err := DecodeUint32(r)
		require.NoError(t, err)
		assert.Equal(t, v, got2)
	}
}

func TestEncodeDecodeUint64RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 1 << 63, 1<<64 - 1}
	for _, v := range values {
		buf := EncodeUint64(nil, v)
		got, n, err := DecodeUint64Bytes(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestEncodeDecodeInt32RoundTrip(t *testing.T) {
	values := []int32{0, -1, 1, 2147483647, -2147483648, 42, -42}
	for _, v := range values {
		buf := EncodeInt32(nil, v)
		got, n, err := DecodeInt32Bytes(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestEncodeDecodeInt64RoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, 9223372036854775807, -9223372036854775808}
	for _, v := range values {
		buf := EncodeInt64(nil, v)
		got, n, err := DecodeInt64Bytes(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestSmallValuesEncodeToOneByte(t *testing.T) {
	for v := uint32(0); v <= 127; v++ {
		buf := EncodeUint32(nil, v)
		assert.Len(t, buf, 1)
	}
}

func TestDecodeRejectsOverlongUint16(t *testing.T) {
	// width 16 => maxBytes = 3; three continuation bytes leave no room
	// for the terminating byte, so the encoding is overlong.
	data := []byte{0x80, 0x80, 0x80, 0x01}
	_, _, err := DecodeUint16Bytes(data)
	assert.ErrorIs(t, err, ErrOverlong)
}

func TestDecodeRejectsOverlongUint32(t *testing.T) {
	// width 32 => maxBytes = 5.
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	_, _, err := DecodeUint32Bytes(data)
	assert.ErrorIs(t, err, ErrOverlong)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, _, err := DecodeUint32Bytes([]byte{0x80, 0x80})
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestDecodeUint32FromReaderRejectsTruncated(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{0x80}))
	_, err := DecodeUint32(r)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestSizeMatchesEncodedLength(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, 1<<32 - 1}
	for _, v := range values {
		assert.Equal(t, len(EncodeUint32(nil, v)), SizeUint32(v))
	}
}

func TestZigzagPreservesSignAndMagnitude(t *testing.T) {
	assert.Equal(t, uint64(0), zigzag64(0, 64))
	assert.Equal(t, uint64(1), zigzag64(-1, 64))
	assert.Equal(t, uint64(2), zigzag64(1, 64))
	assert.Equal(t, int64(-1), unzigzag64(1))
	assert.Equal(t, int64(1), unzigzag64(2))
}
