package world

import (
	"log"
	"runtime"

	"github.com/sarchlab/actornet/sim/naming"
	"github.com/sarchlab/actornet/sim/topology"
)

// Builder can build worlds.
type Builder struct {
	name       string
	parallel   bool
	workers    int
	mailboxCap int
}

// MakeBuilder creates a builder with default parameters: a serial world
// named "World".
func MakeBuilder() Builder {
	return Builder{
		name:       "World",
		workers:    runtime.GOMAXPROCS(0),
		mailboxCap: 16,
	}
}

// WithName sets the name of the world. The name must follow the naming
// convention, as in "Net" or "Lab.Net[2]".
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithParallelExecution makes the world run computers concurrently and
// deliver messages through per-actor mailboxes.
func (b Builder) WithParallelExecution() Builder {
	b.parallel = true
	return b
}

// WithWorkers sets the maximum number of computers that run at the same time
// in a parallel world.
func (b Builder) WithWorkers(n int) Builder {
	b.workers = n
	return b
}

// WithMailboxCapacity sets the buffer size of the per-actor mailbox channels
// used by a parallel world during delivery.
func (b Builder) WithMailboxCapacity(n int) Builder {
	b.mailboxCap = n
	return b
}

func (b Builder) parametersMustBeValid() {
	naming.NameMustBeValid(b.name)

	if b.workers <= 0 {
		log.Panicf("worker count must be positive, got %d", b.workers)
	}

	if b.mailboxCap < 0 {
		log.Panicf("mailbox capacity must not be negative, got %d",
			b.mailboxCap)
	}
}

// Build creates an empty world.
func (b Builder) Build() *World {
	b.parametersMustBeValid()

	w := &World{
		NamedBase: naming.MakeNamedBase(b.name),
		graph:     topology.NewGraph(),
	}

	w.engine = &serialEngine{}
	if b.parallel {
		w.engine = &parallelEngine{
			workers:    b.workers,
			mailboxCap: b.mailboxCap,
		}
	}

	return w
}

// New creates a serial world with default parameters.
func New() *World {
	return MakeBuilder().Build()
}
