package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	buf := Encode(nil, v)
	got, n, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	return got
}

func TestRoundTripScalars(t *testing.T) {
	assert.Equal(t, None{}, roundTrip(t, None{}))
	assert.Equal(t, Some{Value: U32(7)}, roundTrip(t, Some{Value: U32(7)}))
	assert.Equal(t, Bool(true), roundTrip(t, Bool(true)))
	assert.Equal(t, Bool(false), roundTrip(t, Bool(false)))
	assert.Equal(t, U8(200), roundTrip(t, U8(200)))
	assert.Equal(t, I8(-100), roundTrip(t, I8(-100)))
	assert.Equal(t, U16(60000), roundTrip(t, U16(60000)))
	assert.Equal(t, I16(-30000), roundTrip(t, I16(-30000)))
	assert.Equal(t, U32(4000000000), roundTrip(t, U32(4000000000)))
	assert.Equal(t, I32(-2000000000), roundTrip(t, I32(-2000000000)))
	assert.Equal(t, U64(18000000000000000000), roundTrip(t, U64(18000000000000000000)))
	assert.Equal(t, I64(-9000000000000000000), roundTrip(t, I64(-9000000000000000000)))
	assert.Equal(t, F32(3.25), roundTrip(t, F32(3.25)))
	assert.Equal(t, F64(-2.5e10), roundTrip(t, F64(-2.5e10)))
	assert.Equal(t, String("hello, aldrin"), roundTrip(t, String("hello, aldrin")))
	assert.Equal(t, Bytes{1, 2, 3}, roundTrip(t, Bytes{1, 2, 3}))
}

func TestRoundTripUuidObjectServiceIds(t *testing.T) {
	u := Uuid{1, 2, 3}
	assert.Equal(t, u, roundTrip(t, u))

	oid := ObjectIdValue{Uuid: Uuid{1}, Cookie: Uuid{2}}
	assert.Equal(t, oid, roundTrip(t, oid))

	sid := ServiceIdValue{Object: oid, Uuid: Uuid{3}, Cookie: Uuid{4}}
	assert.Equal(t, sid, roundTrip(t, sid))
}

func TestRoundTripVec1AndVec2(t *testing.T) {
	v1 := Vec1{U32(1), U32(2), U32(3)}
	assert.Equal(t, v1, roundTrip(t, v1))

	v2 := Vec2{String("a"), String("b")}
	assert.Equal(t, v2, roundTrip(t, v2))

	var empty Vec2
	got := roundTrip(t, empty)
	assert.Len(t, got.(Vec2), 0)
}

func TestRoundTripMapAndSet(t *testing.T) {
	m := Map{
		KeyKind: KeyString,
		Entries: []MapEntry{
			{Key: String("x"), Value: U32(1)},
			{Key: String("y"), Value: U32(2)},
		},
	}
	assert.Equal(t, m, roundTrip(t, m))

	s := Set{KeyKind: KeyU32, Entries: []Value{U32(1), U32(2), U32(3)}}
	assert.Equal(t, s, roundTrip(t, s))
}

func TestRoundTripStructPreservesUnknownFields(t *testing.T) {
	s := Struct{Fields: []StructField{
		{Id: 0, Value: String("known")},
		{Id: 99, Value: Bytes{0xde, 0xad}}, // unknown to this reader's schema
	}}
	got := roundTrip(t, s).(Struct)
	assert.Equal(t, s.Fields, got.Fields)

	v, ok := got.Field(99)
	require.True(t, ok)
	assert.Equal(t, Bytes{0xde, 0xad}, v)
}

func TestStructRequireFieldMissing(t *testing.T) {
	s := Struct{Fields: []StructField{{Id: 0, Value: Bool(true)}}}
	_, err := s.RequireField(1)
	assert.ErrorIs(t, err, ErrInvalidSerialization)
}

func TestRoundTripEnumFallbackVariant(t *testing.T) {
	e := Enum{VariantId: 12345, Value: None{}}
	assert.Equal(t, e, roundTrip(t, e))
}

func TestRoundTripSenderReceiver(t *testing.T) {
	cookie := Uuid{9, 9, 9}
	assert.Equal(t, Sender(cookie), roundTrip(t, Sender(cookie)))
	assert.Equal(t, Receiver(cookie), roundTrip(t, Receiver(cookie)))
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, _, err := Decode([]byte{0xff})
	assert.ErrorIs(t, err, ErrUnexpectedValue)
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	_, _, err := Decode([]byte{byte(KindU32), 0x80})
	assert.ErrorIs(t, err, ErrUnexpectedEOI)
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	buf := []byte{byte(KindString)}
	buf = append(buf, 2, 0xff, 0xfe) // varint length=2, invalid utf8 bytes
	_, _, err := Decode(buf)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecodeRejectsExcessiveNesting(t *testing.T) {
	var v Value = None{}
	for i := 0; i < DefaultMaxDepth+5; i++ {
		v = Some{Value: v}
	}
	buf := Encode(nil, v)
	_, _, err := Decode(buf)
	assert.ErrorIs(t, err, ErrTooDeeplyNested)
}

func TestDecodeAcceptsNestingAtBoundary(t *testing.T) {
	var v Value = None{}
	for i := 0; i < DefaultMaxDepth-1; i++ {
		v = Some{Value: v}
	}
	buf := Encode(nil, v)
	_, _, err := Decode(buf)
	assert.NoError(t, err)
}

func TestVec2RejectsMalformedTermination(t *testing.T) {
	// A bare U32 where Vec2 expects a Some/None-tagged element.
	buf := []byte{byte(KindVec2), byte(KindU32), 1}
	_, _, err := Decode(buf)
	assert.Error(t, err)
}

func TestSerializedValueDeserializeAndClone(t *testing.T) {
	sv := Serialize(Struct{Fields: []StructField{{Id: 0, Value: U32(42)}}})
	assert.False(t, sv.IsEmpty())

	cloned := sv.Clone()
	assert.Equal(t, sv.Bytes(), cloned.Bytes())

	decoded, err := sv.Deserialize()
	require.NoError(t, err)
	s := decoded.(Struct)
	v, ok := s.Field(0)
	require.True(t, ok)
	assert.Equal(t, U32(42), v)
}

func TestSerializedValueRejectsTrailingData(t *testing.T) {
	buf := Encode(nil, U32(1))
	buf = append(buf, 0xff)
	sv := SerializedValueFromBytes(buf)
	_, err := sv.Deserialize()
	assert.ErrorIs(t, err, ErrTrailingData)
}
