package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// FuzzDecodeArbitraryBytes checks that the decoder never panics on
// arbitrary input and that whenever it reports success, re-encoding the
// result reproduces a value of the same kind.
func FuzzDecodeArbitraryBytes(f *testing.F) {
	seeds := [][]byte{
		{},
		{byte(KindNone)},
		{byte(KindBool), 1},
		{byte(KindString), 0},
		{byte(KindVec1), 0},
		{byte(KindStruct), 0},
		{byte(KindSome), byte(KindSome), byte(KindSome), byte(KindNone)},
		{0xff},
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		v, n, err := Decode(data)
		if err != nil {
			return
		}
		assert.LessOrEqual(t, n, len(data))

		reencoded := Encode(nil, v)
		v2, n2, err2 := Decode(reencoded)
		assert.NoError(t, err2)
		assert.Equal(t, v.Kind(), v2.Kind())
		assert.Equal(t, len(reencoded), n2)
	})
}
