package topology

import "github.com/sarchlab/actornet/sim"

// A Router tells where a message sent on an edge ends up.
type Router interface {
	// Resolve returns the endpoint of edge that is not sender. It returns
	// false if the edge does not exist or if sender is not one of its
	// endpoints; such a message must be dropped.
	Resolve(edge sim.EdgeID, sender sim.ActorID) (sim.ActorID, bool)
}

// Resolve implements Router.
func (g *Graph) Resolve(
	edgeID sim.EdgeID,
	sender sim.ActorID,
) (sim.ActorID, bool) {
	e, found := g.edges[edgeID]
	if !found {
		return 0, false
	}

	return e.Other(sender)
}
