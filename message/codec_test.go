package message

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/aldrin-bus/aldrin/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUuid(b byte) [16]byte {
	var u [16]byte
	for i := range u {
		u[i] = b
	}
	return u
}

func mustValue(t *testing.T, v wire.Value) wire.SerializedValue {
	t.Helper()
	return wire.Serialize(v)
}

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	frame := Encode(m)
	got, err := Decode(frame)
	require.NoError(t, err)
	return got
}

func TestConnectRoundTrip(t *testing.T) {
	sv := mustValue(t, wire.U32(7))
	m := Connect{Version: 17, Data: sv}
	got := roundTrip(t, m)
	assert.Equal(t, m, got)
}

func TestCreateObjectRoundTrip(t *testing.T) {
	m := CreateObject{Serial: 42, Uuid: mustUuid(1)}
	got := roundTrip(t, m)
	assert.Equal(t, m, got)
}

func TestCreateObjectReplyVariants(t *testing.T) {
	ok := CreateObjectReply{Serial: 1, Result: CreateObjectOk, Cookie: mustUuid(2)}
	assert.Equal(t, ok, roundTrip(t, ok))

	dup := CreateObjectReply{Serial: 1, Result: CreateObjectDuplicateObject}
	got := roundTrip(t, dup).(CreateObjectReply)
	assert.Equal(t, dup.Serial, got.Serial)
	assert.Equal(t, dup.Result, got.Result)
}

func TestCallFunctionRoundTrip(t *testing.T) {
	args := mustValue(t, wire.String("hello"))
	m := CallFunction{Serial: 9, Service: mustUuid(3), Function: 4, Args: args}
	got := roundTrip(t, m).(CallFunction)
	assert.Equal(t, m.Serial, got.Serial)
	assert.Equal(t, m.Service, got.Service)
	assert.Equal(t, m.Function, got.Function)
	assert.Equal(t, m.Args.Bytes(), got.Args.Bytes())
}

func TestCallFunctionReplyInvalidArgsOptionalValue(t *testing.T) {
	withValue := CallFunctionReply{
		Serial:   5,
		Result:   CallInvalidArgs,
		Value:    mustValue(t, wire.Bool(true)),
		HasValue: true,
	}
	got := roundTrip(t, withValue).(CallFunctionReply)
	assert.True(t, got.HasValue)
	assert.Equal(t, withValue.Value.Bytes(), got.Value.Bytes())

	withoutValue := CallFunctionReply{Serial: 5, Result: CallInvalidArgs}
	got2 := roundTrip(t, withoutValue).(CallFunctionReply)
	assert.False(t, got2.HasValue)

	aborted := CallFunctionReply{Serial: 6, Result: CallAborted}
	got3 := roundTrip(t, aborted).(CallFunctionReply)
	assert.Equal(t, CallAborted, got3.Result)
}

func TestCreateChannelRoundTrip(t *testing.T) {
	cap := uint32(16)
	m := CreateChannel{Serial: 1, Claim: ChannelEndSender, Capacity: &cap}
	got := roundTrip(t, m).(CreateChannel)
	assert.Equal(t, m.Serial, got.Serial)
	assert.Equal(t, m.Claim, got.Claim)
	require.NotNil(t, got.Capacity)
	assert.Equal(t, cap, *got.Capacity)
}

func TestClaimChannelEndReplyOkOmitsPeerCapacityWhenNil(t *testing.T) {
	m := ClaimChannelEndReply{Serial: 2, Result: ClaimChannelEndOk}
	got := roundTrip(t, m).(ClaimChannelEndReply)
	assert.Nil(t, got.PeerCapacity)
}

func TestSendItemAndAddChannelCapacity(t *testing.T) {
	item := mustValue(t, wire.I32(-9))
	send := SendItem{Cookie: mustUuid(4), Item: item}
	got := roundTrip(t, send).(SendItem)
	assert.Equal(t, send.Item.Bytes(), got.Item.Bytes())

	add := AddChannelCapacity{Cookie: mustUuid(4), N: 64}
	assert.Equal(t, add, roundTrip(t, add))
}

func TestBusListenerFilterVariants(t *testing.T) {
	filters := []BusListenerFilter{
		{Kind: FilterAnyObject},
		{Kind: FilterAnyObjectAnyService},
		{Kind: FilterObject, ObjectUuid: mustUuid(5)},
		{Kind: FilterSpecificObjectAnyService, ObjectUuid: mustUuid(6)},
		{Kind: FilterAnyObjectSpecificService, ServiceUuid: mustUuid(7)},
		{Kind: FilterSpecificObjectSpecificService, ObjectUuid: mustUuid(8), ServiceUuid: mustUuid(9)},
	}
	for _, f := range filters {
		add := AddBusListenerFilter{Cookie: mustUuid(10), Filter: f}
		got := roundTrip(t, add).(AddBusListenerFilter)
		assert.Equal(t, f, got.Filter)
	}
}

func TestBusEventVariants(t *testing.T) {
	events := []BusEvent{
		{Kind: BusEventObjectCreated, ObjectUuid: mustUuid(1)},
		{Kind: BusEventObjectDestroyed, ObjectUuid: mustUuid(2)},
		{Kind: BusEventServiceCreated, ObjectUuid: mustUuid(3), ServiceUuid: mustUuid(4)},
		{Kind: BusEventServiceDestroyed, ObjectUuid: mustUuid(5), ServiceUuid: mustUuid(6)},
	}
	for _, ev := range events {
		m := EmitBusEvent{Cookie: mustUuid(11), Event: ev}
		got := roundTrip(t, m).(EmitBusEvent)
		assert.Equal(t, ev, got.Event)
	}
}

func TestQueryIntrospectionReplyVariants(t *testing.T) {
	ok := QueryIntrospectionReply{Serial: 1, Result: QueryIntrospectionOk, Value: mustValue(t, wire.None{})}
	got := roundTrip(t, ok).(QueryIntrospectionReply)
	assert.Equal(t, ok.Value.Bytes(), got.Value.Bytes())

	unavailable := QueryIntrospectionReply{Serial: 2, Result: QueryIntrospectionUnavailable}
	got2 := roundTrip(t, unavailable).(QueryIntrospectionReply)
	assert.Equal(t, QueryIntrospectionUnavailable, got2.Result)
}

func TestRegisterIntrospectionRoundTrip(t *testing.T) {
	m := RegisterIntrospection{TypeIds: [][16]byte{mustUuid(1), mustUuid(2), mustUuid(3)}}
	got := roundTrip(t, m).(RegisterIntrospection)
	assert.Equal(t, m.TypeIds, got.TypeIds)
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	frame := Encode(CreateObject{Serial: 1, Uuid: mustUuid(1)})
	frame = append(frame, 0xff)
	_, err := Decode(frame)
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	frame := Encode(CreateObject{Serial: 1, Uuid: mustUuid(1)})
	frame[4] = 0xfe
	_, err := Decode(frame)
	assert.Error(t, err)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	frame := Encode(DestroyObject{Serial: 1, Cookie: mustUuid(1)})
	frame = append(frame, 0x00)
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(frame)))
	_, err := Decode(frame)
	assert.Error(t, err)
}

func TestPacketizerReadsBackToBackFrames(t *testing.T) {
	var buf bytes.Buffer
	msgs := []Message{
		CreateObject{Serial: 1, Uuid: mustUuid(1)},
		DestroyObject{Serial: 2, Cookie: mustUuid(1)},
		Sync{Serial: 3},
	}
	for _, m := range msgs {
		require.NoError(t, WriteMessage(&buf, m))
	}

	p := NewPacketizer(&buf)
	for _, want := range msgs {
		got, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPacketizerRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, Sync{Serial: 1}))

	p := NewPacketizerSize(&buf, HeaderLen)
	_, err := p.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}
