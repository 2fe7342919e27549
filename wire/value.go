package wire

// Value is the closed sum of everything the wire grammar can carry. Every
// concrete type in this package implements it; the unexported seal method
// prevents types outside the package from joining the sum, matching the
// "closed, tagged sum" the grammar requires.
type Value interface {
	Kind() ValueKind
	seal()
}

type (
	// None carries no payload.
	None struct{}

	// Some wraps exactly one recursive value.
	Some struct{ Value Value }

	Bool   bool
	U8     uint8
	I8     int8
	U16    uint16
	I16    int16
	U32    uint32
	I32    int32
	U64    uint64
	I64    int64
	F32    float32
	F64    float64
	String string

	// Uuid is 16 raw bytes in big-endian presentation form.
	Uuid [16]byte

	ObjectIdValue struct {
		Uuid   Uuid
		Cookie Uuid
	}

	ServiceIdValue struct {
		Object ObjectIdValue
		Uuid   Uuid
		Cookie Uuid
	}

	// Vec1 is a counted sequence: varint count followed by that many values.
	Vec1 []Value

	// Vec2 is the same Go-level sequence, encoded as a stream of
	// Some-prefixed values terminated by None.
	Vec2 []Value

	Bytes []byte

	// MapEntry is one (key, value) pair of a Map.
	MapEntry struct {
		Key   Value
		Value Value
	}

	// Map is keyed by one of the ten closed KeyKind scalars; Entries
	// preserves encounter order but no ordering is required on the wire.
	Map struct {
		KeyKind KeyKind
		Entries []MapEntry
	}

	// Set is the Map without values: a keyed collection of unique keys.
	Set struct {
		KeyKind KeyKind
		Entries []Value
	}

	// StructField is one (field-id, value) pair of a Struct. Unknown field
	// ids observed on decode are retained here opaquely so a later
	// re-encode reproduces them verbatim.
	StructField struct {
		Id    uint32
		Value Value
	}

	// Struct is an ordered sequence of (field-id, value) pairs.
	Struct struct {
		Fields []StructField
	}

	// Enum is a variant-id tagged payload. An id unrecognized by the
	// application falls back to being carried as-is rather than rejected.
	Enum struct {
		VariantId uint32
		Value     Value
	}

	// Sender is a ChannelCookie naming the sending end of a channel.
	Sender Uuid

	// Receiver is a ChannelCookie naming the receiving end of a channel.
	Receiver Uuid
)

func (None) seal()           {}
func (Some) seal()           {}
func (Bool) seal()           {}
func (U8) seal()             {}
func (I8) seal()             {}
func (U16) seal()            {}
func (I16) seal()            {}
func (U32) seal()            {}
func (I32) seal()            {}
func (U64) seal()            {}
func (I64) seal()            {}
func (F32) seal()            {}
func (F64) seal()            {}
func (String) seal()         {}
func (Uuid) seal()           {}
func (ObjectIdValue) seal()  {}
func (ServiceIdValue) seal() {}
func (Vec1) seal()           {}
func (Vec2) seal()           {}
func (Bytes) seal()          {}
func (Map) seal()            {}
func (Set) seal()            {}
func (Struct) seal()         {}
func (Enum) seal()           {}
func (Sender) seal()         {}
func (Receiver) seal()       {}

func (None) Kind() ValueKind           { return KindNone }
func (Some) Kind() ValueKind           { return KindSome }
func (Bool) Kind() ValueKind           { return KindBool }
func (U8) Kind() ValueKind             { return KindU8 }
func (I8) Kind() ValueKind             { return KindI8 }
func (U16) Kind() ValueKind            { return KindU16 }
func (I16) Kind() ValueKind            { return KindI16 }
func (U32) Kind() ValueKind            { return KindU32 }
func (I32) Kind() ValueKind            { return KindI32 }
func (U64) Kind() ValueKind            { return KindU64 }
func (I64) Kind() ValueKind            { return KindI64 }
func (F32) Kind() ValueKind            { return KindF32 }
func (F64) Kind() ValueKind            { return KindF64 }
func (String) Kind() ValueKind         { return KindString }
func (Uuid) Kind() ValueKind           { return KindUuid }
func (ObjectIdValue) Kind() ValueKind  { return KindObjectId }
func (ServiceIdValue) Kind() ValueKind { return KindServiceId }
func (Vec1) Kind() ValueKind           { return KindVec1 }
func (Vec2) Kind() ValueKind           { return KindVec2 }
func (Bytes) Kind() ValueKind          { return KindBytes }
func (m Map) Kind() ValueKind          { return mapKindByKey[m.KeyKind] }
func (s Set) Kind() ValueKind          { return setKindByKey[s.KeyKind] }
func (Struct) Kind() ValueKind         { return KindStruct }
func (Enum) Kind() ValueKind           { return KindEnum }
func (Sender) Kind() ValueKind         { return KindSender }
func (Receiver) Kind() ValueKind       { return KindReceiver }

// Field looks up a field by id, returning ok=false if absent — the decode
// path for a required-but-missing field that maps to ErrInvalidSerialization.
func (s Struct) Field(id uint32) (Value, bool) {
	for _, f := range s.Fields {
		if f.Id == id {
			return f.Value, true
		}
	}
	return nil, false
}

// RequireField looks up a required field, returning a typed decode error
// when it is absent rather than a zero value.
func (s Struct) RequireField(id uint32) (Value, error) {
	v, ok := s.Field(id)
	if !ok {
		return nil, newDecodeError(ErrInvalidSerialization, DecodeErrorInvalidSerialization, "missing required field")
	}
	return v, nil
}
