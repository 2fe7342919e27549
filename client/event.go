package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/wire"
)

// subscriptionState tracks every local EventSubscription against one
// service cookie, deduplicated the way the wire protocol requires: the
// broker only ever sees one Subscribe(All)Event per (service, event)
// while at least one local subscriber is live, keyed here simply by
// slice length rather than a separate counter.
type subscriptionState struct {
	allSubs []*EventSubscription
	byEvent map[uint32][]*EventSubscription
}

type eventDelivery struct {
	args      wire.SerializedValue
	destroyed bool
}

// EventSubscription is one local subscriber of a service's events,
// either a single event id or every event id of the service.
type EventSubscription struct {
	client  *Client
	service aldrin.ServiceCookie
	event   *uint32 // nil means subscribed to every event
	queue   *mailbox.Mailbox[eventDelivery]
}

// Next blocks for the next delivered event, or returns ErrInvalidService
// once the subscribed service is destroyed.
func (s *EventSubscription) Next(ctx context.Context) (wire.SerializedValue, error) {
	d, err := s.queue.Recv(ctx)
	if err != nil {
		return wire.SerializedValue{}, err
	}
	if d.destroyed {
		return wire.SerializedValue{}, ErrInvalidService
	}
	return d.args, nil
}

// Unsubscribe withdraws this subscription, sending Unsubscribe(All)Event
// to the broker only once no local subscriber for the same (service,
// event) scope remains.
func (s *EventSubscription) Unsubscribe(ctx context.Context) error {
	c := s.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		st, ok := c.remoteSubs[s.service]
		if !ok {
			result.Resolve(nil)
			return
		}
		if s.event == nil {
			st.allSubs = removeSubscription(st.allSubs, s)
			if len(st.allSubs) == 0 {
				c.send(message.UnsubscribeAllEvents{Service: [16]byte(s.service)})
			}
		} else {
			ev := *s.event
			st.byEvent[ev] = removeSubscription(st.byEvent[ev], s)
			if len(st.byEvent[ev]) == 0 {
				delete(st.byEvent, ev)
				c.send(message.UnsubscribeEvent{Service: [16]byte(s.service), Event: ev})
			}
		}
		if len(st.allSubs) == 0 && len(st.byEvent) == 0 {
			delete(c.remoteSubs, s.service)
		}
		result.Resolve(nil)
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return err
	}
	return out
}

func removeSubscription(list []*EventSubscription, target *EventSubscription) []*EventSubscription {
	for i, s := range list {
		if s == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

type subscribeOutcome struct {
	sub *EventSubscription
	err error
}

// subscribe registers a new EventSubscription, sending Subscribe(All)Event
// only on the 0-to-1 transition for this (service, event) scope.
func (c *Client) subscribe(ctx context.Context, service aldrin.ServiceCookie, event *uint32) (*EventSubscription, error) {
	result := mailbox.NewOneShot[subscribeOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		st, ok := c.remoteSubs[service]
		if !ok {
			st = &subscriptionState{byEvent: make(map[uint32][]*EventSubscription)}
			c.remoteSubs[service] = st
		}
		sub := &EventSubscription{
			client:  c,
			service: service,
			event:   event,
			queue:   mailbox.New[eventDelivery](c.cfg.EventQueueDepth),
		}

		if event == nil {
			st.allSubs = append(st.allSubs, sub)
			if len(st.allSubs) > 1 {
				result.Resolve(subscribeOutcome{sub: sub})
				return
			}
			serial := c.register(func(m message.Message, err error) {
				if err != nil {
					result.Resolve(subscribeOutcome{err: err})
					return
				}
				reply := m.(message.SubscribeAllEventsReply)
				if reply.Result != message.SubscribeAllEventsOk {
					st.allSubs = removeSubscription(st.allSubs, sub)
					result.Resolve(subscribeOutcome{err: ErrInvalidService})
					return
				}
				result.Resolve(subscribeOutcome{sub: sub})
			})
			if err := c.send(message.SubscribeAllEvents{Serial: serial, Service: [16]byte(service)}); err != nil {
				delete(c.pending, serial)
				result.Resolve(subscribeOutcome{err: err})
			}
			return
		}

		ev := *event
		st.byEvent[ev] = append(st.byEvent[ev], sub)
		if len(st.byEvent[ev]) > 1 {
			result.Resolve(subscribeOutcome{sub: sub})
			return
		}
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(subscribeOutcome{err: err})
				return
			}
			reply := m.(message.SubscribeEventReply)
			if reply.Result != message.SubscribeEventOk {
				st.byEvent[ev] = removeSubscription(st.byEvent[ev], sub)
				result.Resolve(subscribeOutcome{err: ErrInvalidService})
				return
			}
			result.Resolve(subscribeOutcome{sub: sub})
		})
		if err := c.send(message.SubscribeEvent{Serial: serial, Service: [16]byte(service), Event: ev}); err != nil {
			delete(c.pending, serial)
			result.Resolve(subscribeOutcome{err: err})
		}
	}); err != nil {
		return nil, err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return out.sub, out.err
}

func (c *Client) handleEmitEvent(msg message.EmitEvent) {
	cookie := aldrin.ServiceCookie(msg.Service)
	st, ok := c.remoteSubs[cookie]
	if !ok {
		return
	}
	for _, sub := range st.allSubs {
		sub.queue.TrySend(eventDelivery{args: msg.Args})
	}
	for _, sub := range st.byEvent[msg.Event] {
		sub.queue.TrySend(eventDelivery{args: msg.Args})
	}
}

func (c *Client) handleServiceDestroyed(msg message.ServiceDestroyed) {
	cookie := aldrin.ServiceCookie(msg.Service)
	st, ok := c.remoteSubs[cookie]
	if !ok {
		return
	}
	for _, sub := range st.allSubs {
		sub.queue.TrySend(eventDelivery{destroyed: true})
	}
	for _, subs := range st.byEvent {
		for _, sub := range subs {
			sub.queue.TrySend(eventDelivery{destroyed: true})
		}
	}
	delete(c.remoteSubs, cookie)
}
