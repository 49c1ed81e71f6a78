package behaviors

import (
	"sync/atomic"

	"github.com/sarchlab/actornet/sim"
)

// Counter counts every message it receives. It never sends anything.
type Counter struct {
	*sim.ComputerBase

	count atomic.Uint64
}

// NewCounter creates a Counter starting at zero.
func NewCounter() *Counter {
	return &Counter{ComputerBase: sim.NewComputerBase()}
}

// Count returns the number of messages received so far.
func (c *Counter) Count() uint64 {
	return c.count.Load()
}

// Run adds the number of incoming messages to the count.
func (c *Counter) Run(_ []sim.EdgeID, incoming sim.Queue) (sim.Queue, error) {
	c.count.Add(uint64(incoming.Len()))

	return nil, nil
}
