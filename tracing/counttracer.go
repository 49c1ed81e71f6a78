package tracing

import (
	"sync"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/world"
)

// CountTracer counts messages and failures per actor. It is safe to read
// while the world is running.
type CountTracer struct {
	lock     sync.Mutex
	ticks    uint64
	sent     map[sim.ActorID]uint64
	received map[sim.ActorID]uint64
	failures map[sim.ActorID]uint64
	dropped  map[world.DropReason]uint64
}

// NewCountTracer creates a CountTracer with all counts at zero.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		sent:     make(map[sim.ActorID]uint64),
		received: make(map[sim.ActorID]uint64),
		failures: make(map[sim.ActorID]uint64),
		dropped:  make(map[world.DropReason]uint64),
	}
}

// StartTick does nothing.
func (t *CountTracer) StartTick(uint64) {}

// Deliver counts one message sent and received.
func (t *CountTracer) Deliver(d world.Delivery) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.sent[d.From]++
	t.received[d.To]++
}

// Drop counts one message sent but lost.
func (t *CountTracer) Drop(d world.Delivery) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.sent[d.From]++
	t.dropped[d.Reason]++
}

// Fail counts one failed run.
func (t *CountTracer) Fail(_ uint64, failure sim.ActorFailure) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.failures[failure.Actor]++
}

// EndTick counts one completed tick.
func (t *CountTracer) EndTick(uint64, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.ticks++
}

// Ticks returns the number of ticks observed.
func (t *CountTracer) Ticks() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.ticks
}

// Sent returns the number of messages an actor produced, delivered or not.
func (t *CountTracer) Sent(actor sim.ActorID) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.sent[actor]
}

// Received returns the number of messages delivered to an actor.
func (t *CountTracer) Received(actor sim.ActorID) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.received[actor]
}

// Failures returns the number of ticks in which an actor failed.
func (t *CountTracer) Failures(actor sim.ActorID) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.failures[actor]
}

// Dropped returns the number of messages dropped for a reason.
func (t *CountTracer) Dropped(reason world.DropReason) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.dropped[reason]
}

// TotalDelivered returns the number of messages delivered to any actor.
func (t *CountTracer) TotalDelivered() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	var total uint64
	for _, n := range t.received {
		total += n
	}

	return total
}
