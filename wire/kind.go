package wire

// ValueKind is the single discriminant byte that precedes every value's
// payload on the wire. It is a closed, tagged sum — decoders must reject
// any byte that does not name one of these kinds.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindSome
	KindBool
	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF32
	KindF64
	KindString
	KindUuid
	KindObjectId
	KindServiceId
	KindVec1
	KindVec2
	KindBytes

	KindMapU8
	KindMapI8
	KindMapU16
	KindMapI16
	KindMapU32
	KindMapI32
	KindMapU64
	KindMapI64
	KindMapString
	KindMapUuid

	KindSetU8
	KindSetI8
	KindSetU16
	KindSetI16
	KindSetU32
	KindSetI32
	KindSetU64
	KindSetI64
	KindSetString
	KindSetUuid

	KindStruct
	KindEnum
	KindSender
	KindReceiver

	kindSentinel // not a valid wire kind; marks the end of the range
)

func (k ValueKind) valid() bool {
	return k < kindSentinel
}

// String implements fmt.Stringer for diagnostics and test failure output.
func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

var kindNames = map[ValueKind]string{
	KindNone:      "None",
	KindSome:      "Some",
	KindBool:      "Bool",
	KindU8:        "U8",
	KindI8:        "I8",
	KindU16:       "U16",
	KindI16:       "I16",
	KindU32:       "U32",
	KindI32:       "I32",
	KindU64:       "U64",
	KindI64:       "I64",
	KindF32:       "F32",
	KindF64:       "F64",
	KindString:    "String",
	KindUuid:      "Uuid",
	KindObjectId:  "ObjectId",
	KindServiceId: "ServiceId",
	KindVec1:      "Vec1",
	KindVec2:      "Vec2",
	KindBytes:     "Bytes",
	KindMapU8:     "MapU8",
	KindMapI8:     "MapI8",
	KindMapU16:    "MapU16",
	KindMapI16:    "MapI16",
	KindMapU32:    "MapU32",
	KindMapI32:    "MapI32",
	KindMapU64:    "MapU64",
	KindMapI64:    "MapI64",
	KindMapString: "MapString",
	KindMapUuid:   "MapUuid",
	KindSetU8:     "SetU8",
	KindSetI8:     "SetI8",
	KindSetU16:    "SetU16",
	KindSetI16:    "SetI16",
	KindSetU32:    "SetU32",
	KindSetI32:    "SetI32",
	KindSetU64:    "SetU64",
	KindSetI64:    "SetI64",
	KindSetString: "SetString",
	KindSetUuid:   "SetUuid",
	KindStruct:    "Struct",
	KindEnum:      "Enum",
	KindSender:    "Sender",
	KindReceiver:  "Receiver",
}

// KeyKind is the integer/string/UUID scalar kind a Map or Set is keyed by.
type KeyKind uint8

const (
	KeyU8 KeyKind = iota
	KeyI8
	KeyU16
	KeyI16
	KeyU32
	KeyI32
	KeyU64
	KeyI64
	KeyString
	KeyUuid
)

var mapKindByKey = map[KeyKind]ValueKind{
	KeyU8: KindMapU8, KeyI8: KindMapI8,
	KeyU16: KindMapU16, KeyI16: KindMapI16,
	KeyU32: KindMapU32, KeyI32: KindMapI32,
	KeyU64: KindMapU64, KeyI64: KindMapI64,
	KeyString: KindMapString, KeyUuid: KindMapUuid,
}

var setKindByKey = map[KeyKind]ValueKind{
	KeyU8: KindSetU8, KeyI8: KindSetI8,
	KeyU16: KindSetU16, KeyI16: KindSetI16,
	KeyU32: KindSetU32, KeyI32: KindSetI32,
	KeyU64: KindSetU64, KeyI64: KindSetI64,
	KeyString: KindSetString, KeyUuid: KindSetUuid,
}

var keyKindByMapKind = inverse(mapKindByKey)
var keyKindBySetKind = inverse(setKindByKey)

func inverse(m map[KeyKind]ValueKind) map[ValueKind]KeyKind {
	out := make(map[ValueKind]KeyKind, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
