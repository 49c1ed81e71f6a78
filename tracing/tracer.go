package tracing

import (
	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/world"
)

// A Tracer is told about every event of a world's ticks. All the methods of
// one tick are called from the goroutine that drives the tick, in the order
// the events happen.
type Tracer interface {
	StartTick(tick uint64)
	Deliver(d world.Delivery)
	Drop(d world.Delivery)
	Fail(tick uint64, failure sim.ActorFailure)
	EndTick(tick uint64, err error)
}
