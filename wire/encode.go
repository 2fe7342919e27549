package wire

import (
	"math"

	"github.com/aldrin-bus/aldrin/varint"
)

// Encode appends the wire encoding of v to buf and returns the extended
// slice, the same growable-buffer idiom as varint's Encode* helpers.
func Encode(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind()))
	return encodePayload(buf, v)
}

func encodePayload(buf []byte, v Value) []byte {
	switch val := v.(type) {
	case None:
		return buf
	case Some:
		return Encode(buf, val.Value)
	case Bool:
		if val {
			return append(buf, 1)
		}
		return append(buf, 0)
	case U8:
		return append(buf, byte(val))
	case I8:
		return append(buf, byte(val))
	case U16:
		return varint.EncodeUint16(buf, uint16(val))
	case I16:
		return varint.EncodeInt16(buf, int16(val))
	case U32:
		return varint.EncodeUint32(buf, uint32(val))
	case I32:
		return varint.EncodeInt32(buf, int32(val))
	case U64:
		return varint.EncodeUint64(buf, uint64(val))
	case I64:
		return varint.EncodeInt64(buf, int64(val))
	case F32:
		bits := math.Float32bits(float32(val))
		return append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	case F64:
		bits := math.Float64bits(float64(val))
		return append(buf,
			byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24),
			byte(bits>>32), byte(bits>>40), byte(bits>>48), byte(bits>>56))
	case String:
		buf = varint.EncodeUint32(buf, uint32(len(val)))
		return append(buf, val...)
	case Uuid:
		return append(buf, val[:]...)
	case ObjectIdValue:
		buf = append(buf, val.Uuid[:]...)
		return append(buf, val.Cookie[:]...)
	case ServiceIdValue:
		buf = append(buf, val.Object.Uuid[:]...)
		buf = append(buf, val.Object.Cookie[:]...)
		buf = append(buf, val.Uuid[:]...)
		return append(buf, val.Cookie[:]...)
	case Vec1:
		buf = varint.EncodeUint32(buf, uint32(len(val)))
		for _, item := range val {
			buf = Encode(buf, item)
		}
		return buf
	case Vec2:
		for _, item := range val {
			buf = Encode(buf, Some{Value: item})
		}
		return Encode(buf, None{})
	case Bytes:
		buf = varint.EncodeUint32(buf, uint32(len(val)))
		return append(buf, val...)
	case Map:
		buf = varint.EncodeUint32(buf, uint32(len(val.Entries)))
		for _, entry := range val.Entries {
			buf = encodeKey(buf, val.KeyKind, entry.Key)
			buf = Encode(buf, entry.Value)
		}
		return buf
	case Set:
		buf = varint.EncodeUint32(buf, uint32(len(val.Entries)))
		for _, key := range val.Entries {
			buf = encodeKey(buf, val.KeyKind, key)
		}
		return buf
	case Struct:
		buf = varint.EncodeUint32(buf, uint32(len(val.Fields)))
		for _, f := range val.Fields {
			buf = varint.EncodeUint32(buf, f.Id)
			buf = Encode(buf, f.Value)
		}
		return buf
	case Enum:
		buf = varint.EncodeUint32(buf, val.VariantId)
		return Encode(buf, val.Value)
	case Sender:
		return append(buf, val[:]...)
	case Receiver:
		return append(buf, val[:]...)
	default:
		panic("wire: unreachable value kind in encodePayload")
	}
}

// encodeKey encodes a bare scalar key (no discriminant byte — the
// containing Map/Set kind already names it).
func encodeKey(buf []byte, keyKind KeyKind, key Value) []byte {
	switch keyKind {
	case KeyU8:
		return append(buf, byte(key.(U8)))
	case KeyI8:
		return append(buf, byte(key.(I8)))
	case KeyU16:
		return varint.EncodeUint16(buf, uint16(key.(U16)))
	case KeyI16:
		return varint.EncodeInt16(buf, int16(key.(I16)))
	case KeyU32:
		return varint.EncodeUint32(buf, uint32(key.(U32)))
	case KeyI32:
		return varint.EncodeInt32(buf, int32(key.(I32)))
	case KeyU64:
		return varint.EncodeUint64(buf, uint64(key.(U64)))
	case KeyI64:
		return varint.EncodeInt64(buf, int64(key.(I64)))
	case KeyString:
		s := key.(String)
		buf = varint.EncodeUint32(buf, uint32(len(s)))
		return append(buf, s...)
	case KeyUuid:
		u := key.(Uuid)
		return append(buf, u[:]...)
	default:
		panic("wire: unreachable key kind in encodeKey")
	}
}
