package varint

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func FuzzEncodeDecodeUint32(f *testing.F) {
	seeds := []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, 268435455, 1<<32 - 1}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, value uint32) {
		buf := EncodeUint32(nil, value)
		assert.LessOrEqual(t, len(buf), maxBytes(32))

		decoded, n, err := DecodeUint32Bytes(buf)
		require.NoError(t, err)
		assert.Equal(t, value, decoded)
		assert.Equal(t, len(buf), n)

		r := bufio.NewReader(bytes.NewReader(buf))
		decoded2, err := DecodeUint32(r)
		require.NoError(t, err)
		assert.Equal(t, value, decoded2)
	})
}

func FuzzDecodeUint32Bytes(f *testing.F) {
	seeds := [][]byte{
		{0x00},
		{0x7F},
		{0x80, 0x01},
		{0xFF, 0xFF, 0xFF, 0x7F},
		{0x80},
		{0x80, 0x80},
		{0x80, 0x80, 0x80, 0x80, 0x80},
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x01},
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		value1, n1, err1 := DecodeUint32Bytes(data)

		r := bufio.NewReader(bytes.NewReader(data))
		value2, err2 := DecodeUint32(r)

		assert.Equal(t, err1 == nil, err2 == nil,
			"byte and reader decoders disagree on error")

		if err1 == nil && err2 == nil {
			assert.Equal(t, value1, value2)
			assert.GreaterOrEqual(t, n1, 1)
			assert.LessOrEqual(t, n1, maxBytes(32))

			encoded := EncodeUint32(nil, value1)
			assert.LessOrEqual(t, len(encoded), maxBytes(32))
		}
	})
}

func FuzzEncodeDecodeInt64(f *testing.F) {
	seeds := []int64{0, -1, 1, 9223372036854775807, -9223372036854775808}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, value int64) {
		buf := EncodeInt64(nil, value)
		decoded, n, err := DecodeInt64Bytes(buf)
		require.NoError(t, err)
		assert.Equal(t, value, decoded)
		assert.Equal(t, len(buf), n)
	})
}
