// Package world owns a topology and the computers placed on it, and drives
// them tick by tick.
//
// A tick has three phases, always in this order:
//
//  1. Clear: every incoming queue is taken and emptied.
//  2. Run: every computer runs, in ascending ActorID order, with its adjacent
//     edges and the messages taken from its incoming queue. The result
//     becomes its outgoing queue.
//  3. Deliver: every outgoing message is routed across its edge and appended
//     to the incoming queue of the actor at the other end. Messages that
//     cannot be routed are dropped.
//
// Clearing happens at the start of a tick, so once Tick returns each actor's
// incoming queue holds exactly the messages delivered during that tick.
package world

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/hooking"
	"github.com/sarchlab/actornet/sim/naming"
	"github.com/sarchlab/actornet/sim/topology"
)

// ErrNoSuchActor is returned when an actor is not part of the world.
var ErrNoSuchActor = errors.New("no such actor")

// ErrNotConnected is returned when two actors share no edge.
var ErrNotConnected = errors.New("actors are not connected")

type slot struct {
	computer sim.Computer
	incoming sim.Queue
	outgoing sim.Queue

	// edges handed to the computer in its last run.
	allowed map[sim.EdgeID]struct{}
}

// A World is the scheduler of the simulation. It exclusively owns its
// computers; they are stored in an arena indexed by ActorID, the same id
// space the topology uses.
//
// All methods are safe to call from multiple goroutines; a call that mutates
// the topology waits for an in-flight tick to finish. Hooks are invoked with
// the world locked and must not call back into the world.
type World struct {
	naming.NamedBase
	hooking.HookableBase

	lock   sync.Mutex
	graph  *topology.Graph
	slots  []*slot
	engine engine
	tick   uint64
}

// AddComputer registers a computer and places it in the topology as an
// unconnected node. The id is assigned before Setup runs. If Setup fails,
// the world is left unchanged, the id is withdrawn from computers that
// implement sim.IDResetter, and a *sim.SetupError is returned.
func (w *World) AddComputer(c sim.Computer) (sim.ActorID, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	next := w.graph.NextNodeID()
	c.AssignID(next)

	if err := setup(c); err != nil {
		if r, ok := c.(sim.IDResetter); ok {
			r.ResetID()
		}

		return 0, &sim.SetupError{Err: err}
	}

	actorID := w.graph.AddNode()
	if actorID != next || int(actorID) != len(w.slots) {
		log.Panicf("actor id %d does not match arena size %d",
			actorID, len(w.slots))
	}

	w.slots = append(w.slots, &slot{computer: c})

	return actorID, nil
}

func setup(c sim.Computer) (err error) {
	s, ok := c.(sim.Setupper)
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("setup panicked: %v", r)
		}
	}()

	return s.Setup()
}

// RemoveComputer removes an actor, all its edges and all its queued
// messages. The removed computer is returned to the caller.
func (w *World) RemoveComputer(actorID sim.ActorID) (sim.Computer, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	s, err := w.slotOf(actorID)
	if err != nil {
		return nil, err
	}

	if err := w.graph.RemoveNode(actorID); err != nil {
		return nil, err
	}

	w.slots[actorID] = nil

	return s.computer, nil
}

// Connect creates a new edge between two actors. Connecting the same pair
// again creates another, distinct edge.
func (w *World) Connect(a, b sim.ActorID) (sim.EdgeID, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if _, err := w.slotOf(a); err != nil {
		return 0, err
	}

	if _, err := w.slotOf(b); err != nil {
		return 0, err
	}

	return w.graph.AddEdge(a, b)
}

// Disconnect removes one edge. Messages already queued on it are dropped
// when they are delivered.
func (w *World) Disconnect(edge sim.EdgeID) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.graph.RemoveEdge(edge)
}

// DisconnectPair removes the oldest edge between a and b.
func (w *World) DisconnectPair(a, b sim.ActorID) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	edges := w.graph.EdgesBetween(a, b)
	if len(edges) == 0 {
		return fmt.Errorf("actors %d and %d: %w", a, b, ErrNotConnected)
	}

	return w.graph.RemoveEdge(edges[0])
}

// IsConnected checks if at least one edge joins a and b.
func (w *World) IsConnected(a, b sim.ActorID) bool {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.graph.IsConnected(a, b)
}

// Actors returns the ids of all the actors in ascending order.
func (w *World) Actors() []sim.ActorID {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.graph.Nodes()
}

// CurrentTick returns the number of completed ticks.
func (w *World) CurrentTick() uint64 {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.tick
}

// Parallel checks if the world runs computers concurrently.
func (w *World) Parallel() bool {
	return w.engine.parallel()
}

// ActorName returns the hierarchical name of an actor, as in
// "World.Actor[3]".
func (w *World) ActorName(actorID sim.ActorID) string {
	return naming.BuildNameWithIndex(w.Name(), "Actor", int(actorID))
}

func (w *World) slotOf(actorID sim.ActorID) (*slot, error) {
	if int(actorID) >= len(w.slots) || w.slots[actorID] == nil {
		return nil, fmt.Errorf("actor %d: %w", actorID, ErrNoSuchActor)
	}

	return w.slots[actorID], nil
}

func (w *World) invokeHook(pos *hooking.HookPos, item, detail interface{}) {
	if w.NumHooks() == 0 {
		return
	}

	w.InvokeHook(hooking.HookCtx{
		Domain: w,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
