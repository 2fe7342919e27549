// Package discoverer aggregates the object/service lifecycle events a
// bus listener reports into completion events for a keyed set of entry
// specifications: an entry fires once every service it requires is
// observed on a live instance of its object, and fires again the
// instant any constituent disappears.
package discoverer

import (
	"context"
	"sync"

	aldrin "github.com/aldrin-bus/aldrin"
	"github.com/aldrin-bus/aldrin/client"
	"github.com/aldrin-bus/aldrin/message"
	"github.com/aldrin-bus/aldrin/pkg/mailbox"
)

// EntrySpec describes one watched pattern: either a specific object
// uuid (Object non-nil) or any object (Object nil), together with the
// set of service uuids that must all be live on a matching object
// before it is reported as discovered.
type EntrySpec struct {
	Object   *aldrin.ObjectUuid
	Services []aldrin.ServiceUuid
}

func (s EntrySpec) matchesObject(uuid aldrin.ObjectUuid) bool {
	return s.Object == nil || *s.Object == uuid
}

func (s EntrySpec) requiresService(svc aldrin.ServiceUuid) bool {
	for _, want := range s.Services {
		if want == svc {
			return true
		}
	}
	return false
}

func (s EntrySpec) filters() []message.BusListenerFilter {
	if s.Object == nil {
		filters := []message.BusListenerFilter{{Kind: message.FilterAnyObject}}
		for _, svc := range s.Services {
			filters = append(filters, message.BusListenerFilter{
				Kind:        message.FilterAnyObjectSpecificService,
				ServiceUuid: [16]byte(svc),
			})
		}
		return filters
	}
	filters := []message.BusListenerFilter{{Kind: message.FilterObject, ObjectUuid: [16]byte(*s.Object)}}
	for _, svc := range s.Services {
		filters = append(filters, message.BusListenerFilter{
			Kind:        message.FilterSpecificObjectSpecificService,
			ObjectUuid:  [16]byte(*s.Object),
			ServiceUuid: [16]byte(svc),
		})
	}
	return filters
}

// EventKind discriminates the two transitions a Discoverer reports.
type EventKind uint8

const (
	// Created fires once every service an entry requires has been
	// observed on a live instance of its object.
	Created EventKind = iota
	// Destroyed fires once a previously complete entry loses its
	// object or any required service.
	Destroyed
)

// Event is one entry completing or un-completing.
type Event[K comparable] struct {
	Key    K
	Object aldrin.ObjectUuid
	Kind   EventKind
}

// trackedObject is the per-entry, per-object bookkeeping: which of the
// entry's required services have been observed on this live object.
type trackedObject map[aldrin.ServiceUuid]struct{}

// Discoverer composes one bus listener with a keyed set of entry
// specifications and reports Created/Destroyed as objects come to
// satisfy, or stop satisfying, each entry.
type Discoverer[K comparable] struct {
	cl       *client.Client
	listener *client.BusListener
	specs    map[K]EntrySpec
	events   *mailbox.Mailbox[Event[K]]

	mu       sync.Mutex
	matched  map[K]map[aldrin.ObjectUuid]trackedObject
	complete map[K]map[aldrin.ObjectUuid]struct{}

	cancelFeed context.CancelFunc
	feedDone   chan struct{}
}

// New creates a Discoverer watching specs and starts it in scope. The
// bus listener backing it lives for the Discoverer's lifetime; call
// Close to release it.
func New[K comparable](ctx context.Context, cl *client.Client, specs map[K]EntrySpec, scope message.BusListenerScope) (*Discoverer[K], error) {
	listener, err := cl.CreateBusListener(ctx)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		for _, f := range spec.filters() {
			if err := listener.AddFilter(ctx, f); err != nil {
				return nil, err
			}
		}
	}

	d := &Discoverer[K]{
		cl:       cl,
		listener: listener,
		specs:    specs,
		events:   mailbox.New[Event[K]](64),
		matched:  make(map[K]map[aldrin.ObjectUuid]trackedObject),
		complete: make(map[K]map[aldrin.ObjectUuid]struct{}),
	}
	if err := listener.Start(ctx, scope); err != nil {
		return nil, err
	}
	d.startFeed()
	return d, nil
}

func (d *Discoverer[K]) startFeed() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelFeed = cancel
	done := make(chan struct{})
	d.feedDone = done
	go func() {
		defer close(done)
		for {
			ev, err := d.listener.Next(ctx)
			if err != nil {
				return
			}
			d.handle(ev)
		}
	}()
}

func (d *Discoverer[K]) stopFeed() {
	if d.cancelFeed == nil {
		return
	}
	d.cancelFeed()
	<-d.feedDone
	d.cancelFeed = nil
}

// Next blocks for the next Created/Destroyed event.
func (d *Discoverer[K]) Next(ctx context.Context) (Event[K], error) {
	return d.events.Recv(ctx)
}

// Restart atomically stops the underlying bus listener, discards any
// residual queued bus events and already-computed output events,
// clears every entry's matched-service state, and restarts the
// listener in scope.
func (d *Discoverer[K]) Restart(ctx context.Context, scope message.BusListenerScope) error {
	d.stopFeed()
	if err := d.listener.Stop(ctx); err != nil {
		return err
	}
	for {
		if _, ok := d.listener.TryNext(); !ok {
			break
		}
	}
	for {
		if _, ok := d.events.TryRecv(); !ok {
			break
		}
	}

	d.mu.Lock()
	d.matched = make(map[K]map[aldrin.ObjectUuid]trackedObject)
	d.complete = make(map[K]map[aldrin.ObjectUuid]struct{})
	d.mu.Unlock()

	if err := d.listener.Start(ctx, scope); err != nil {
		return err
	}
	d.startFeed()
	return nil
}

// Close stops the discoverer and destroys its underlying bus listener.
func (d *Discoverer[K]) Close(ctx context.Context) error {
	d.stopFeed()
	return d.listener.Destroy(ctx)
}

func (d *Discoverer[K]) handle(ev client.BusListenerEvent) {
	if ev.Finished {
		return
	}

	var out []Event[K]
	d.mu.Lock()
	switch ev.Event.Kind {
	case message.BusEventObjectCreated:
		out = d.onObjectCreatedLocked(aldrin.ObjectUuid(ev.Event.ObjectUuid))
	case message.BusEventObjectDestroyed:
		out = d.onObjectDestroyedLocked(aldrin.ObjectUuid(ev.Event.ObjectUuid))
	case message.BusEventServiceCreated:
		out = d.onServiceChangedLocked(aldrin.ObjectUuid(ev.Event.ObjectUuid), aldrin.ServiceUuid(ev.Event.ServiceUuid), true)
	case message.BusEventServiceDestroyed:
		out = d.onServiceChangedLocked(aldrin.ObjectUuid(ev.Event.ObjectUuid), aldrin.ServiceUuid(ev.Event.ServiceUuid), false)
	}
	d.mu.Unlock()

	for _, e := range out {
		d.events.Send(context.Background(), e)
	}
}

func (d *Discoverer[K]) onObjectCreatedLocked(uuid aldrin.ObjectUuid) []Event[K] {
	var out []Event[K]
	for key, spec := range d.specs {
		if !spec.matchesObject(uuid) {
			continue
		}
		if d.matched[key] == nil {
			d.matched[key] = make(map[aldrin.ObjectUuid]trackedObject)
		}
		d.matched[key][uuid] = make(trackedObject)
		if ev, ok := d.checkCompleteLocked(key, uuid, spec); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (d *Discoverer[K]) onObjectDestroyedLocked(uuid aldrin.ObjectUuid) []Event[K] {
	var out []Event[K]
	for key := range d.specs {
		if _, tracked := d.matched[key][uuid]; !tracked {
			continue
		}
		delete(d.matched[key], uuid)
		if comp, ok := d.complete[key]; ok {
			if _, ok := comp[uuid]; ok {
				delete(comp, uuid)
				out = append(out, Event[K]{Key: key, Object: uuid, Kind: Destroyed})
			}
		}
	}
	return out
}

func (d *Discoverer[K]) onServiceChangedLocked(uuid aldrin.ObjectUuid, svc aldrin.ServiceUuid, created bool) []Event[K] {
	var out []Event[K]
	for key, spec := range d.specs {
		if !spec.matchesObject(uuid) || !spec.requiresService(svc) {
			continue
		}
		services, tracked := d.matched[key][uuid]
		if !tracked {
			if d.matched[key] == nil {
				d.matched[key] = make(map[aldrin.ObjectUuid]trackedObject)
			}
			services = make(trackedObject)
			d.matched[key][uuid] = services
		}
		if created {
			services[svc] = struct{}{}
			if ev, ok := d.checkCompleteLocked(key, uuid, spec); ok {
				out = append(out, ev)
			}
			continue
		}
		delete(services, svc)
		if comp, ok := d.complete[key]; ok {
			if _, ok := comp[uuid]; ok {
				delete(comp, uuid)
				out = append(out, Event[K]{Key: key, Object: uuid, Kind: Destroyed})
			}
		}
	}
	return out
}

// checkCompleteLocked marks (key, uuid) complete and returns the
// Created event to emit, if every service spec requires has now been
// observed and it was not already complete.
func (d *Discoverer[K]) checkCompleteLocked(key K, uuid aldrin.ObjectUuid, spec EntrySpec) (Event[K], bool) {
	services := d.matched[key][uuid]
	if len(services) < len(spec.Services) {
		return Event[K]{}, false
	}
	if d.complete[key] == nil {
		d.complete[key] = make(map[aldrin.ObjectUuid]struct{})
	}
	if _, already := d.complete[key][uuid]; already {
		return Event[K]{}, false
	}
	d.complete[key][uuid] = struct{}{}
	return Event[K]{Key: key, Object: uuid, Kind: Created}, true
}
