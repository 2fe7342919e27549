package client

import (
	"context"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
)

// objectState is the dispatcher-owned bookkeeping for one object this
// client has created.
type objectState struct {
	cookie   aldrin.ObjectCookie
	uuid     aldrin.ObjectUuid
	services map[aldrin.ServiceCookie]struct{}
}

// ObjectHandle is a live object owned by this client.
type ObjectHandle struct {
	client *Client
	cookie aldrin.ObjectCookie
	uuid   aldrin.ObjectUuid
}

// Cookie returns the broker-assigned instance identifier for this
// object.
func (h *ObjectHandle) Cookie() aldrin.ObjectCookie { return h.cookie }

// Uuid returns the object's stable identity.
func (h *ObjectHandle) Uuid() aldrin.ObjectUuid { return h.uuid }

type createObjectOutcome struct {
	handle *ObjectHandle
	err    error
}

// CreateObject creates a new object identified by uuid, owned by this
// client.
func (c *Client) CreateObject(ctx context.Context, uuid aldrin.ObjectUuid) (*ObjectHandle, error) {
	result := mailbox.NewOneShot[createObjectOutcome]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(createObjectOutcome{err: err})
				return
			}
			reply := m.(message.CreateObjectReply)
			if reply.Result != message.CreateObjectOk {
				result.Resolve(createObjectOutcome{err: ErrDuplicateObject})
				return
			}
			cookie := aldrin.ObjectCookie(reply.Cookie)
			c.objects[cookie] = &objectState{
				cookie:   cookie,
				uuid:     uuid,
				services: make(map[aldrin.ServiceCookie]struct{}),
			}
			result.Resolve(createObjectOutcome{handle: &ObjectHandle{client: c, cookie: cookie, uuid: uuid}})
		})
		if err := c.send(message.CreateObject{Serial: serial, Uuid: [16]byte(uuid)}); err != nil {
			delete(c.pending, serial)
			result.Resolve(createObjectOutcome{err: err})
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

// Destroy destroys the object and every service it still owns.
func (h *ObjectHandle) Destroy(ctx context.Context) error {
	c := h.client
	result := mailbox.NewOneShot[error]()
	if err := c.submit(ctx, func(c *Client) {
		serial := c.register(func(m message.Message, err error) {
			if err != nil {
				result.Resolve(err)
				return
			}
			reply := m.(message.DestroyObjectReply)
			if reply.Result != message.DestroyObjectOk {
				result.Resolve(ErrInvalidObject)
				return
			}
			if obj, ok := c.objects[h.cookie]; ok {
				for svcCookie := range obj.services {
					if st, ok := c.services[svcCookie]; ok {
						st.calls.Close()
					}
					delete(c.services, svcCookie)
				}
			}
			delete(c.objects, h.cookie)
			result.Resolve(nil)
		})
		if err := c.send(message.DestroyObject{Serial: serial, Cookie: [16]byte(h.cookie)}); err != nil {
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
