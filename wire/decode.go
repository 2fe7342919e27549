package wire

import (
	"math"
	"unicode/utf8"

	"github.com/aldrin-bus/aldrin/varint"
)

// DefaultMaxDepth is the recursion bound applied when a caller does not
// supply one via DecodeWithDepth. The grammar only requires "at least 32".
const DefaultMaxDepth = 32

// Decode reads one value from the head of data using DefaultMaxDepth,
// returning the value and the number of bytes consumed.
func Decode(data []byte) (Value, int, error) {
	return DecodeWithDepth(data, DefaultMaxDepth)
}

// DecodeWithDepth reads one value from the head of data, rejecting nesting
// deeper than maxDepth.
func DecodeWithDepth(data []byte, maxDepth int) (Value, int, error) {
	d := &decoder{data: data, maxDepth: maxDepth}
	v, err := d.value(0)
	if err != nil {
		return nil, 0, err
	}
	return v, d.pos, nil
}

type decoder struct {
	data     []byte
	pos      int
	maxDepth int
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, newDecodeError(ErrUnexpectedEOI, DecodeErrorUnexpectedEOI, "")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, newDecodeError(ErrUnexpectedEOI, DecodeErrorUnexpectedEOI, "")
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) uint16() (uint16, error) {
	v, n, err := varint.DecodeUint16Bytes(d.data[d.pos:])
	if err != nil {
		return 0, wrapVarintErr(err)
	}
	d.pos += n
	return v, nil
}

func (d *decoder) int16() (int16, error) {
	v, n, err := varint.DecodeInt16Bytes(d.data[d.pos:])
	if err != nil {
		return 0, wrapVarintErr(err)
	}
	d.pos += n
	return v, nil
}

func wrapVarintErr(err error) error {
	return newDecodeError(ErrUnexpectedEOI, DecodeErrorUnexpectedEOI, err.Error())
}

func (d *decoder) uint32() (uint32, error) {
	v, n, err := varint.DecodeUint32Bytes(d.data[d.pos:])
	if err != nil {
		return 0, wrapVarintErr(err)
	}
	d.pos += n
	return v, nil
}

func (d *decoder) int32() (int32, error) {
	v, n, err := varint.DecodeInt32Bytes(d.data[d.pos:])
	if err != nil {
		return 0, wrapVarintErr(err)
	}
	d.pos += n
	return v, nil
}

func (d *decoder) uint64() (uint64, error) {
	v, n, err := varint.DecodeUint64Bytes(d.data[d.pos:])
	if err != nil {
		return 0, wrapVarintErr(err)
	}
	d.pos += n
	return v, nil
}

func (d *decoder) int64() (int64, error) {
	v, n, err := varint.DecodeInt64Bytes(d.data[d.pos:])
	if err != nil {
		return 0, wrapVarintErr(err)
	}
	d.pos += n
	return v, nil
}

func (d *decoder) uuid() (Uuid, error) {
	b, err := d.take(16)
	if err != nil {
		return Uuid{}, err
	}
	var u Uuid
	copy(u[:], b)
	return u, nil
}

func (d *decoder) bytesOfLen(n uint32) ([]byte, error) {
	return d.take(int(n))
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > d.maxDepth {
		return nil, newDecodeError(ErrTooDeeplyNested, DecodeErrorTooDeeplyNested, "")
	}

	b, err := d.byte()
	if err != nil {
		return nil, err
	}
	kind := ValueKind(b)
	if !kind.valid() {
		return nil, newDecodeError(ErrUnexpectedValue, DecodeErrorUnexpectedValue, kind.String())
	}
	return d.payload(kind, depth)
}

func (d *decoder) payload(kind ValueKind, depth int) (Value, error) {
	switch kind {
	case KindNone:
		return None{}, nil
	case KindSome:
		inner, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		return Some{Value: inner}, nil
	case KindBool:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return Bool(b != 0), nil
	case KindU8:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return U8(b), nil
	case KindI8:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return I8(int8(b)), nil
	case KindU16:
		v, err := d.uint16()
		if err != nil {
			return nil, err
		}
		return U16(v), nil
	case KindI16:
		v, err := d.int16()
		if err != nil {
			return nil, err
		}
		return I16(v), nil
	case KindU32:
		v, err := d.uint32()
		if err != nil {
			return nil, err
		}
		return U32(v), nil
	case KindI32:
		v, err := d.int32()
		if err != nil {
			return nil, err
		}
		return I32(v), nil
	case KindU64:
		v, err := d.uint64()
		if err != nil {
			return nil, err
		}
		return U64(v), nil
	case KindI64:
		v, err := d.int64()
		if err != nil {
			return nil, err
		}
		return I64(v), nil
	case KindF32:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		return F32(math.Float32frombits(bits)), nil
	case KindF64:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		bits := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
			uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
		return F64(math.Float64frombits(bits)), nil
	case KindString:
		n, err := d.uint32()
		if err != nil {
			return nil, err
		}
		raw, err := d.bytesOfLen(n)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, newDecodeError(ErrInvalidUTF8, DecodeErrorInvalidSerialization, "")
		}
		return String(raw), nil
	case KindUuid:
		u, err := d.uuid()
		if err != nil {
			return nil, err
		}
		return u, nil
	case KindObjectId:
		u, err := d.uuid()
		if err != nil {
			return nil, err
		}
		c, err := d.uuid()
		if err != nil {
			return nil, err
		}
		return ObjectIdValue{Uuid: u, Cookie: c}, nil
	case KindServiceId:
		ou, err := d.uuid()
		if err != nil {
			return nil, err
		}
		oc, err := d.uuid()
		if err != nil {
			return nil, err
		}
		su, err := d.uuid()
		if err != nil {
			return nil, err
		}
		sc, err := d.uuid()
		if err != nil {
			return nil, err
		}
		return ServiceIdValue{Object: ObjectIdValue{Uuid: ou, Cookie: oc}, Uuid: su, Cookie: sc}, nil
	case KindVec1:
		n, err := d.uint32()
		if err != nil {
			return nil, err
		}
		items := make(Vec1, 0, clampPrealloc(n))
		for i := uint32(0); i < n; i++ {
			item, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case KindVec2:
		var items Vec2
		for {
			inner, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			some, isSome := inner.(Some)
			if !isSome {
				if _, isNone := inner.(None); isNone {
					break
				}
				return nil, newDecodeError(ErrInvalidSerialization, DecodeErrorInvalidSerialization, "Vec2 element must be Some or terminating None")
			}
			items = append(items, some.Value)
		}
		return items, nil
	case KindBytes:
		n, err := d.uint32()
		if err != nil {
			return nil, err
		}
		raw, err := d.bytesOfLen(n)
		if err != nil {
			return nil, err
		}
		cp := make([]byte, len(raw))
		copy(cp, raw)
		return Bytes(cp), nil
	case KindStruct:
		n, err := d.uint32()
		if err != nil {
			return nil, err
		}
		fields := make([]StructField, 0, clampPrealloc(n))
		for i := uint32(0); i < n; i++ {
			id, err := d.uint32()
			if err != nil {
				return nil, err
			}
			v, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, StructField{Id: id, Value: v})
		}
		return Struct{Fields: fields}, nil
	case KindEnum:
		variant, err := d.uint32()
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		return Enum{VariantId: variant, Value: v}, nil
	case KindSender:
		u, err := d.uuid()
		if err != nil {
			return nil, err
		}
		return Sender(u), nil
	case KindReceiver:
		u, err := d.uuid()
		if err != nil {
			return nil, err
		}
		return Receiver(u), nil
	}

	if keyKind, ok := keyKindByMapKind[kind]; ok {
		return d.decodeMap(keyKind, depth)
	}
	if keyKind, ok := keyKindBySetKind[kind]; ok {
		return d.decodeSet(keyKind)
	}

	return nil, newDecodeError(ErrUnexpectedValue, DecodeErrorUnexpectedValue, kind.String())
}

func (d *decoder) decodeMap(keyKind KeyKind, depth int) (Value, error) {
	n, err := d.uint32()
	if err != nil {
		return nil, err
	}
	entries := make([]MapEntry, 0, clampPrealloc(n))
	for i := uint32(0); i < n; i++ {
		key, err := d.key(keyKind)
		if err != nil {
			return nil, err
		}
		val, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
	}
	return Map{KeyKind: keyKind, Entries: entries}, nil
}

func (d *decoder) decodeSet(keyKind KeyKind) (Value, error) {
	n, err := d.uint32()
	if err != nil {
		return nil, err
	}
	entries := make([]Value, 0, clampPrealloc(n))
	for i := uint32(0); i < n; i++ {
		key, err := d.key(keyKind)
		if err != nil {
			return nil, err
		}
		entries = append(entries, key)
	}
	return Set{KeyKind: keyKind, Entries: entries}, nil
}

func (d *decoder) key(keyKind KeyKind) (Value, error) {
	switch keyKind {
	case KeyU8:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return U8(b), nil
	case KeyI8:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return I8(int8(b)), nil
	case KeyU16:
		v, err := d.uint16()
		if err != nil {
			return nil, err
		}
		return U16(v), nil
	case KeyI16:
		v, err := d.int16()
		if err != nil {
			return nil, err
		}
		return I16(v), nil
	case KeyU32:
		v, err := d.uint32()
		if err != nil {
			return nil, err
		}
		return U32(v), nil
	case KeyI32:
		v, err := d.int32()
		if err != nil {
			return nil, err
		}
		return I32(v), nil
	case KeyU64:
		v, err := d.uint64()
		if err != nil {
			return nil, err
		}
		return U64(v), nil
	case KeyI64:
		v, err := d.int64()
		if err != nil {
			return nil, err
		}
		return I64(v), nil
	case KeyString:
		n, err := d.uint32()
		if err != nil {
			return nil, err
		}
		raw, err := d.bytesOfLen(n)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, newDecodeError(ErrInvalidUTF8, DecodeErrorInvalidSerialization, "")
		}
		return String(raw), nil
	case KeyUuid:
		u, err := d.uuid()
		if err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, newDecodeError(ErrUnexpectedValue, DecodeErrorUnexpectedValue, "unknown key kind")
	}
}

// clampPrealloc bounds slice preallocation so a maliciously large count
// field cannot force an outsized allocation before length validation.
func clampPrealloc(n uint32) int {
	const max = 4096
	if n > max {
		return max
	}
	return int(n)
}
