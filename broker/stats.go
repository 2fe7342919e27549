package broker

import (
	"context"

	"github.com/aldrin-bus/aldrin/pkg/mailbox"
)

// Stats is a point-in-time census of every entity the broker currently
// tracks. Because every registry is private to the event loop, the
// only way to read it is to ask the loop itself.
type Stats struct {
	Objects      int
	Services     int
	Channels     int
	BusListeners int
	Connections  int
}

type statsQuery struct {
	result *mailbox.OneShot[Stats]
}

func (statsQuery) isEvent() {}

// Stats blocks until the broker's event loop computes a fresh census of
// its registries. Once every connection that created an entity
// disconnects, the disconnect cascade removes it before this can ever
// observe it again, so Stats naturally reports zero objects, services,
// channels and bus listeners attributable to a connection that is gone.
func (b *Broker) Stats(ctx context.Context) (Stats, error) {
	result := mailbox.NewOneShot[Stats]()
	if err := b.events.Send(ctx, statsQuery{result: result}); err != nil {
		return Stats{}, err
	}
	return result.Wait(ctx)
}

func (b *Broker) handleStatsQuery(q statsQuery) {
	q.result.Resolve(Stats{
		Objects:      len(b.objects),
		Services:     len(b.services),
		Channels:     len(b.channels),
		BusListeners: len(b.busListeners),
		Connections:  len(b.conns),
	})
}
