package sim

import (
	"fmt"
	"sync"
)

// A Computer is the behavior of one actor. The world calls Run once per tick
// with the edges adjacent to the actor and a copy of the messages delivered
// to it during the previous tick. Every returned message must be addressed
// to one of the given edges; messages sent elsewhere are dropped.
//
// Run must not keep references to the incoming queue after it returns. A
// computer is never run concurrently with itself.
type Computer interface {
	// ID returns the identity the world assigned to the computer.
	ID() ActorID

	// AssignID is called by the world when the computer is registered.
	AssignID(id ActorID)

	// Run computes the outgoing messages of one tick.
	Run(edges []EdgeID, incoming Queue) (Queue, error)
}

// A Setupper is a Computer that needs to prepare itself before the first
// tick. Setup is called exactly once, at registration, after the id is
// assigned. If it fails, the computer is not added to the world.
type Setupper interface {
	Setup() error
}

// An IDResetter is a Computer whose identity can be withdrawn. The world
// resets a computer whose Setup failed, so that it can be registered again
// under whatever id is free at that time.
type IDResetter interface {
	ResetID()
}

// ComputerBase provides the identity handling that every computer needs.
// Embed a *ComputerBase in a behavior to satisfy ID and AssignID.
type ComputerBase struct {
	lock     sync.RWMutex
	id       ActorID
	assigned bool
}

// NewComputerBase creates a ComputerBase without an identity.
func NewComputerBase() *ComputerBase {
	return new(ComputerBase)
}

// ID returns the assigned id.
func (c *ComputerBase) ID() ActorID {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.id
}

// Assigned checks if the computer has received an id.
func (c *ComputerBase) Assigned() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.assigned
}

// AssignID sets the id. Assigning the same id again is a no-op. Assigning a
// different id panics unless ResetID was called in between.
func (c *ComputerBase) AssignID(id ActorID) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.assigned && c.id != id {
		panic(fmt.Sprintf(
			"computer already has id %d, cannot reassign to %d", c.id, id))
	}

	c.id = id
	c.assigned = true
}

// ResetID withdraws the assigned id.
func (c *ComputerBase) ResetID() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.id = 0
	c.assigned = false
}
