// Package behaviors provides the computers that implement the built-in
// protocols.
package behaviors

import "github.com/sarchlab/actornet/sim"

// PathPropagation advertises itself on every adjacent edge each tick, with a
// path vector that holds only its own id. It ignores incoming messages.
type PathPropagation struct {
	*sim.ComputerBase

	port sim.Port
}

// NewPathPropagation creates a PathPropagation computer that sends on port 0.
func NewPathPropagation() *PathPropagation {
	return &PathPropagation{ComputerBase: sim.NewComputerBase()}
}

// WithPort sets the port the advertisements are sent on.
func (c *PathPropagation) WithPort(port sim.Port) *PathPropagation {
	c.port = port
	return c
}

// Run emits one advertisement per edge.
func (c *PathPropagation) Run(
	edges []sim.EdgeID,
	_ sim.Queue,
) (sim.Queue, error) {
	outgoing := make(sim.Queue, 0, len(edges))
	advert := sim.NewPathVector(c.ID())

	for _, edge := range edges {
		outgoing.Push(sim.MsgBuilder{}.
			WithPort(c.port).
			WithEdge(edge).
			WithData(advert).
			Build())
	}

	return outgoing, nil
}
