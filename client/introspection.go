package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/wire"
)

// IntrospectionHandler returns the serialized introspection data this
// client can serve for a type id it has registered, or false if it
// turns out it no longer can.
type IntrospectionHandler func(typeID aldrin.TypeId) (wire.SerializedValue, bool)

// RegisterIntrospection announces that handler can serve introspection
// data for typeID, fire-and-forget.
func (c *Client) RegisterIntrospection(ctx context.Context, typeID aldrin.TypeId, handler IntrospectionHandler) error {
	return c.submit(ctx, func(c *Client) {
		c.introspectionHandlers[typeID] = handler
		c.send(message.RegisterIntrospection{TypeIds: [][16]byte{[16]byte(typeID)}})
	})
}

type queryIntrospectionOutcome struct {
	value wire.SerializedValue
	err   error
}

// QueryIntrospection asks the broker for the introspection data
// registered for typeID by any connected peer.
func (c *Client) QueryIntrospection(ctx context.Context, typeID aldrin.TypeId) (wire.SerializedValue, error) {
	result := mailbox.NewOneShot[queryIntrospectionOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(queryIntrospectionOutcome{err: err})
				return
			}
			reply := m.(message.QueryIntrospectionReply)
			if reply.Result != message.QueryIntrospectionOk {
				result.Resolve(queryIntrospectionOutcome{err: ErrUnavailable})
				return
			}
			result.Resolve(queryIntrospectionOutcome{value: reply.Value})
		})
		if err := c.send(message.QueryIntrospection{Serial: serial, TypeId: [16]byte(typeID)}); err != nil {
			delete(c.pending, serial)
			result.Resolve(queryIntrospectionOutcome{err: err})
		}
	}); err != nil {
		return wire.SerializedValue{}, err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return wire.SerializedValue{}, err
	}
	return out.value, out.err
}

// handleQueryIntrospection serves an inbound QueryIntrospection request
// against whatever handlers this client has registered.
func (c *Client) handleQueryIntrospection(msg message.QueryIntrospection) {
	typeID := aldrin.TypeId(msg.TypeId)
	handler, ok := c.introspectionHandlers[typeID]
	if !ok {
		c.send(message.QueryIntrospectionReply{Serial: msg.Serial, Result: message.QueryIntrospectionUnavailable})
		return
	}
	value, ok := handler(typeID)
	if !ok {
		c.send(message.QueryIntrospectionReply{Serial: msg.Serial, Result: message.QueryIntrospectionUnavailable})
		return
	}
	c.send(message.QueryIntrospectionReply{Serial: msg.Serial, Result: message.QueryIntrospectionOk, Value: value})
}
