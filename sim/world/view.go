package world

import (
	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/naming"
	"github.com/sarchlab/actornet/sim/topology"
)

// ActorView is a snapshot of one actor. The queues are copies; Computer is
// the live computer, read its state through World.InspectComputer while
// ticks may be running.
type ActorView struct {
	ID       sim.ActorID
	Name     string
	Edges    []sim.EdgeID
	Incoming sim.Queue
	Outgoing sim.Queue
	Computer sim.Computer
}

// IncomingLen returns the number of messages waiting to be processed.
func (v ActorView) IncomingLen() int {
	return v.Incoming.Len()
}

// OutgoingLen returns the number of messages waiting to be delivered.
func (v ActorView) OutgoingLen() int {
	return v.Outgoing.Len()
}

// Actor returns a snapshot of an actor.
func (w *World) Actor(actorID sim.ActorID) (ActorView, bool) {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.actorView(actorID)
}

// InspectComputer calls f with the computer of an actor while the world is
// locked, so that f never overlaps with a running tick. f must not call back
// into the world. It returns false if the actor does not exist.
func (w *World) InspectComputer(
	actorID sim.ActorID,
	f func(c sim.Computer),
) bool {
	w.lock.Lock()
	defer w.lock.Unlock()

	s, err := w.slotOf(actorID)
	if err != nil {
		return false
	}

	f(s.computer)

	return true
}

// ActorByName looks an actor up by the name returned by ActorName.
func (w *World) ActorByName(name string) (ActorView, bool) {
	if !naming.IsValid(name) {
		return ActorView{}, false
	}

	n := naming.ParseName(name)
	last := n.Last()

	if last.ElemName != "Actor" || len(last.Index) != 1 || last.Index[0] < 0 {
		return ActorView{}, false
	}

	view, found := w.Actor(sim.ActorID(last.Index[0]))
	if !found || view.Name != name {
		return ActorView{}, false
	}

	return view, true
}

func (w *World) actorView(actorID sim.ActorID) (ActorView, bool) {
	s, err := w.slotOf(actorID)
	if err != nil {
		return ActorView{}, false
	}

	return ActorView{
		ID:       actorID,
		Name:     w.ActorName(actorID),
		Edges:    w.graph.EdgesOf(actorID),
		Incoming: s.incoming.Clone(),
		Outgoing: s.outgoing.Clone(),
		Computer: s.computer,
	}, true
}

// Topology returns a read-only view of the topology. Every call on the view
// takes the world lock.
func (w *World) Topology() topology.View {
	return lockedView{w: w}
}

type lockedView struct {
	w *World
}

func (v lockedView) Resolve(
	edge sim.EdgeID,
	sender sim.ActorID,
) (sim.ActorID, bool) {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.Resolve(edge, sender)
}

func (v lockedView) HasNode(node sim.ActorID) bool {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.HasNode(node)
}

func (v lockedView) Nodes() []sim.ActorID {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.Nodes()
}

func (v lockedView) NumNodes() int {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.NumNodes()
}

func (v lockedView) NumEdges() int {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.NumEdges()
}

func (v lockedView) EdgesOf(node sim.ActorID) []sim.EdgeID {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.EdgesOf(node)
}

func (v lockedView) Endpoints(edge sim.EdgeID) (topology.Edge, bool) {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.Endpoints(edge)
}

func (v lockedView) EdgesBetween(a, b sim.ActorID) []sim.EdgeID {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.EdgesBetween(a, b)
}

func (v lockedView) IsConnected(a, b sim.ActorID) bool {
	v.w.lock.Lock()
	defer v.w.lock.Unlock()

	return v.w.graph.IsConnected(a, b)
}
