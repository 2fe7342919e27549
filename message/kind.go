package message

// Kind is the one-byte discriminant following a message's length prefix.
type Kind uint8

const (
	KindConnect Kind = iota
	KindConnectReply
	KindShutdown
	KindSync
	KindSyncReply

	KindCreateObject
	KindCreateObjectReply
	KindDestroyObject
	KindDestroyObjectReply

	KindCreateService
	KindCreateServiceReply
	KindDestroyService
	KindDestroyServiceReply
	KindQueryServiceVersion
	KindQueryServiceVersionReply
	KindQueryServiceInfo
	KindQueryServiceInfoReply

	KindCallFunction
	KindCallFunctionReply
	KindAbortFunctionCall

	KindSubscribeEvent
	KindSubscribeEventReply
	KindUnsubscribeEvent
	KindEmitEvent
	KindSubscribeAllEvents
	KindSubscribeAllEventsReply
	KindUnsubscribeAllEvents
	KindServiceDestroyed

	KindCreateChannel
	KindCreateChannelReply
	KindClaimChannelEnd
	KindClaimChannelEndReply
	KindCloseChannelEnd
	KindCloseChannelEndReply
	KindChannelEndClaimed
	KindChannelEndClosed
	KindSendItem
	KindItemReceived
	KindAddChannelCapacity

	KindCreateBusListener
	KindCreateBusListenerReply
	KindDestroyBusListener
	KindDestroyBusListenerReply
	KindAddBusListenerFilter
	KindRemoveBusListenerFilter
	KindClearBusListenerFilters
	KindStartBusListener
	KindStartBusListenerReply
	KindStopBusListener
	KindStopBusListenerReply
	KindEmitBusEvent
	KindBusListenerCurrentFinished

	KindQueryIntrospection
	KindQueryIntrospectionReply
	KindRegisterIntrospection

	kindSentinel
)

func (k Kind) valid() bool { return k < kindSentinel }

// ChannelEnd names one of a channel's two endpoints.
type ChannelEnd uint8

const (
	ChannelEndSender ChannelEnd = iota
	ChannelEndReceiver
)
