package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
	"github.com/aldrin-bus/aldrin/wire"
)

// serviceState is the dispatcher-owned bookkeeping for one service this
// client has created.
type serviceState struct {
	cookie  aldrin.ServiceCookie
	uuid    aldrin.ServiceUuid
	obj     *objectState
	version uint32
	typeID  *aldrin.TypeId
	calls   *mailbox.Mailbox[*IncomingCall]
}

// ServiceHandle is a live service owned by this client. Incoming
// function calls are served by reading from Accept.
type ServiceHandle struct {
	client *Client
	cookie aldrin.ServiceCookie
	uuid   aldrin.ServiceUuid
	state  *serviceState
}

func (h *ServiceHandle) Cookie() aldrin.ServiceCookie { return h.cookie }
func (h *ServiceHandle) Uuid() aldrin.ServiceUuid     { return h.uuid }

// Accept blocks for the next function call routed to this service.
func (h *ServiceHandle) Accept(ctx context.Context) (*IncomingCall, error) {
	return h.state.calls.Recv(ctx)
}

// Emit publishes one event; the broker only forwards it to connections
// currently subscribed.
func (h *ServiceHandle) Emit(ctx context.Context, event uint32, args wire.SerializedValue) error {
	return h.client.submit(ctx, func(c *Client) {
		c.send(message.EmitEvent{Service: [16]byte(h.cookie), Event: event, Args: args})
	})
}

type createServiceOutcome struct {
	handle *ServiceHandle
	err    error
}

// CreateService creates a new service identified by uuid on this
// object.
func (h *ObjectHandle) CreateService(ctx context.Context, uuid aldrin.ServiceUuid, version uint32, typeID *aldrin.TypeId) (*ServiceHandle, error) {
	c := h.client
	result := mailbox.NewOneShot[createServiceOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(createServiceOutcome{err: err})
				return
			}
			reply := m.(message.CreateServiceReply)
			if reply.Result != message.CreateServiceOk {
				result.Resolve(createServiceOutcome{err: ErrDuplicateService})
				return
			}
			cookie := aldrin.ServiceCookie(reply.Cookie)
			st := &serviceState{
				cookie:  cookie,
				uuid:    uuid,
				version: version,
				typeID:  typeID,
				calls:   mailbox.New[*IncomingCall](c.cfg.EventQueueDepth),
			}
			c.services[cookie] = st
			if obj, ok := c.objects[h.cookie]; ok {
				st.obj = obj
				obj.services[cookie] = struct{}{}
			}
			result.Resolve(createServiceOutcome{handle: &ServiceHandle{client: c, cookie: cookie, uuid: uuid, state: st}})
		})
		var wireType *[16]byte
		if typeID != nil {
			v := [16]byte(*typeID)
			wireType = &v
		}
		msg := message.CreateService{
			Serial:       serial,
			ObjectCookie: [16]byte(h.cookie),
			Uuid:         [16]byte(uuid),
			Version:      version,
			TypeId:       wireType,
		}
		if err := c.send(msg); err != nil {
			delete(c.pending, serial)
			result.Resolve(createServiceOutcome{err: err})
		}
	}); err != nil {
		return nil, err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return out.handle, out.err
}

// Destroy destroys the service.
func (h *ServiceHandle) Destroy(ctx context.Context) error {
	c := h.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(err)
				return
			}
			reply := m.(message.DestroyServiceReply)
			if reply.Result != message.DestroyServiceOk {
				result.Resolve(ErrInvalidService)
				return
			}
			if st, ok := c.services[h.cookie]; ok {
				st.calls.Close()
				if st.obj != nil {
					delete(st.obj.services, h.cookie)
				}
			}
			delete(c.services, h.cookie)
			result.Resolve(nil)
		})
		if err := c.send(message.DestroyService{Serial: serial, Cookie: [16]byte(h.cookie)}); err != nil {
			delete(c.pending, serial)
			result.Resolve(err)
		}
	}); err != nil {
		return err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return err
	}
	return out
}

type queryVersionOutcome struct {
	version uint32
	err     error
}

// QueryServiceVersion asks the broker for the version of any live
// service, owned by this client or not.
func (c *Client) QueryServiceVersion(ctx context.Context, service aldrin.ServiceCookie) (uint32, error) {
	result := mailbox.NewOneShot[queryVersionOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(queryVersionOutcome{err: err})
				return
			}
			reply := m.(message.QueryServiceVersionReply)
			if reply.Result != message.QueryServiceVersionOk {
				result.Resolve(queryVersionOutcome{err: ErrInvalidService})
				return
			}
			result.Resolve(queryVersionOutcome{version: reply.Version})
		})
		if err := c.send(message.QueryServiceVersion{Serial: serial, Service: [16]byte(service)}); err != nil {
			delete(c.pending, serial)
			result.Resolve(queryVersionOutcome{err: err})
		}
	}); err != nil {
		return 0, err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return 0, err
	}
	return out.version, out.err
}

type queryInfoOutcome struct {
	version uint32
	typeID  *aldrin.TypeId
	err     error
}

// QueryServiceInfo asks the broker for the version and optional type id
// of any live service.
func (c *Client) QueryServiceInfo(ctx context.Context, service aldrin.ServiceCookie) (uint32, *aldrin.TypeId, error) {
	result := mailbox.NewOneShot[queryInfoOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(queryInfoOutcome{err: err})
				return
			}
			reply := m.(message.QueryServiceInfoReply)
			if reply.Result != message.QueryServiceInfoOk {
				result.Resolve(queryInfoOutcome{err: ErrInvalidService})
				return
			}
			out := queryInfoOutcome{version: reply.Version}
			if reply.TypeId != nil {
				t := aldrin.TypeId(*reply.TypeId)
				out.typeID = &t
			}
			result.Resolve(out)
		})
		if err := c.send(message.QueryServiceInfo{Serial: serial, Service: [16]byte(service)}); err != nil {
			delete(c.pending, serial)
			result.Resolve(queryInfoOutcome{err: err})
		}
	}); err != nil {
		return 0, nil, err
	}
	out, err := result.Wait(ctx)
	if err != nil {
		return 0, nil, err
	}
	return out.version, out.typeID, out.err
}

// ServiceProxy addresses a service by cookie for calling, subscribing,
// and querying it — whether or not this client owns it.
type ServiceProxy struct {
	client *Client
	cookie aldrin.ServiceCookie
}

// Service returns a proxy for the given service cookie.
func (c *Client) Service(cookie aldrin.ServiceCookie) *ServiceProxy {
	return &ServiceProxy{client: c, cookie: cookie}
}

func (p *ServiceProxy) Cookie() aldrin.ServiceCookie { return p.cookie }

// Call invokes function on the proxied service and blocks for its
// result.
func (p *ServiceProxy) Call(ctx context.Context, function uint32, args wire.SerializedValue) (CallOutcome, error) {
	return p.client.callFunction(ctx, p.cookie, function, args)
}

// QueryVersion is shorthand for Client.QueryServiceVersion against the
// proxied service.
func (p *ServiceProxy) QueryVersion(ctx context.Context) (uint32, error) {
	return p.client.QueryServiceVersion(ctx, p.cookie)
}

// QueryInfo is shorthand for Client.QueryServiceInfo against the proxied
// service.
func (p *ServiceProxy) QueryInfo(ctx context.Context) (uint32, *aldrin.TypeId, error) {
	return p.client.QueryServiceInfo(ctx, p.cookie)
}

// Subscribe subscribes to one event id of the proxied service.
func (p *ServiceProxy) Subscribe(ctx context.Context, event uint32) (*EventSubscription, error) {
	return p.client.subscribe(ctx, p.cookie, &event)
}

// SubscribeAll subscribes to every event id of the proxied service,
// present and future.
func (p *ServiceProxy) SubscribeAll(ctx context.Context) (*EventSubscription, error) {
	return p.client.subscribe(ctx, p.cookie, nil)
}
