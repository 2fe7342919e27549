package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/wire"
)

// inboundCall is the dispatcher-owned bookkeeping for one CallFunction
// the broker has routed to this client to serve, keyed by the serial
// the broker used (its own callee-local namespace, opaque to us).
type inboundCall struct {
	serial  uint32
	service aldrin.ServiceCookie
	aborted chan struct{}
}

// IncomingCall is a function call this client has been asked to serve.
type IncomingCall struct {
	client   *Client
	serial   uint32
	Service  aldrin.ServiceCookie
	Function uint32
	Args     wire.SerializedValue
	aborted  chan struct{}
}

// Aborted is closed if the caller cancels the call before a reply is
// sent; handlers doing real work may select on it to stop early.
func (call *IncomingCall) Aborted() <-chan struct{} { return call.aborted }

// Reply answers the call with a successful result.
func (call *IncomingCall) Reply(ctx context.Context, value wire.SerializedValue) error {
	return call.complete(ctx, message.CallFunctionReply{Serial: call.serial, Result: message.CallOk, Value: value})
}

// ReplyErr answers the call with an application-level error value.
func (call *IncomingCall) ReplyErr(ctx context.Context, value wire.SerializedValue) error {
	return call.complete(ctx, message.CallFunctionReply{Serial: call.serial, Result: message.CallErr, Value: value})
}

// ReplyInvalidFunction answers that Function is not one this service
// implements.
func (call *IncomingCall) ReplyInvalidFunction(ctx context.Context) error {
	return call.complete(ctx, message.CallFunctionReply{Serial: call.serial, Result: message.CallInvalidFunction})
}

// ReplyInvalidArgs answers that Args failed validation, optionally
// carrying a value describing why.
func (call *IncomingCall) ReplyInvalidArgs(ctx context.Context, value *wire.SerializedValue) error {
	reply := message.CallFunctionReply{Serial: call.serial, Result: message.CallInvalidArgs}
	if value != nil {
		reply.HasValue = true
		reply.Value = *value
	}
	return call.complete(ctx, reply)
}

func (call *IncomingCall) complete(ctx context.Context, reply message.CallFunctionReply) error {
	c := call.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		if _, live := c.inboundCalls[call.serial]; !live {
			result.Resolve(ErrAborted)
			return
		}
		delete(c.inboundCalls, call.serial)
		result.Resolve(c.send(reply))
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return err
	}
	return out
}

func (c *Client) handleIncomingCall(msg message.CallFunction) {
	cookie := aldrin.ServiceCookie(msg.Service)
	svc, ok := c.services[cookie]
	if !ok {
		c.send(message.CallFunctionReply{Serial: msg.Serial, Result: message.CallInvalidService})
		return
	}
	aborted := make(chan struct{})
	c.inboundCalls[msg.Serial] = &inboundCall{serial: msg.Serial, service: cookie, aborted: aborted}
	call := &IncomingCall{
		client:   c,
		serial:   msg.Serial,
		Service:  cookie,
		Function: msg.Function,
		Args:     msg.Args,
		aborted:  aborted,
	}
	if !svc.calls.TrySend(call) {
		delete(c.inboundCalls, msg.Serial)
		c.send(message.CallFunctionReply{Serial: msg.Serial, Result: message.CallAborted})
	}
}

func (c *Client) handleAbortFunctionCall(msg message.AbortFunctionCall) {
	if ic, ok := c.inboundCalls[msg.Serial]; ok {
		delete(c.inboundCalls, msg.Serial)
		close(ic.aborted)
	}
}

// CallOutcome is the broker-confirmed result of a completed remote
// function call.
type CallOutcome struct {
	// Ok is true for CallOk, false for CallErr.
	Ok       bool
	Value    wire.SerializedValue
	HasValue bool
}

type callOutcomeResult struct {
	out CallOutcome
	err error
}

// callFunction issues a CallFunction to service and blocks for its
// reply. If ctx is cancelled before a reply arrives, an
// AbortFunctionCall is sent so the callee is not left running on our
// behalf unnecessarily.
func (c *Client) callFunction(ctx context.Context, service aldrin.ServiceCookie, function uint32, args wire.SerializedValue) (CallOutcome, error) {
	result := mailbox.NewOneShot[callOutcomeResult]()
	var serial uint32
	if err := c.submit(ctx, func(c *Client) {
		serial = c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(callOutcomeResult{err: err})
				return
			}
			reply := m.(message.CallFunctionReply)
			switch reply.Result {
			case message.CallOk:
				result.Resolve(callOutcomeResult{out: CallOutcome{Ok: true, Value: reply.Value, HasValue: true}})
			case message.CallErr:
				result.Resolve(callOutcomeResult{out: CallOutcome{Ok: false, Value: reply.Value, HasValue: true}})
			case message.CallAborted:
				result.Resolve(callOutcomeResult{err: ErrAborted})
			case message.CallInvalidService:
				result.Resolve(callOutcomeResult{err: ErrInvalidService})
			case message.CallInvalidFunction:
				result.Resolve(callOutcomeResult{err: ErrInvalidFunction})
			case message.CallInvalidArgs:
				result.Resolve(callOutcomeResult{err: ErrInvalidArgs})
			}
		})
		if err := c.send(message.CallFunction{Serial: serial, Service: [16]byte(service), Function: function, Args: args}); err != nil {
			delete(c.pending, serial)
			result.Resolve(callOutcomeResult{err: err})
		}
	}); err != nil {
		return CallOutcome{}, err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		c.submit(context.Background(), func(c *Client) {
			if _, live := c.pending[serial]; live {
				delete(c.pending, serial)
				c.send(message.AbortFunctionCall{Serial: serial})
			}
		})
		return CallOutcome{}, err
	}
	return out.out, out.err
}
