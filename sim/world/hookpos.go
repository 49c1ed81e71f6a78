package world

import (
	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/hooking"
)

// Hook positions fired by a World. Hooks are always invoked from the
// goroutine that drives the tick, never concurrently.
var (
	// HookPosTickStart fires before the incoming queues are cleared. Item is
	// the tick number.
	HookPosTickStart = &hooking.HookPos{Name: "Tick Start"}

	// HookPosTickEnd fires after delivery. Item is the tick number and
	// Detail is the error returned by the tick, if any.
	HookPosTickEnd = &hooking.HookPos{Name: "Tick End"}

	// HookPosBeforeRun fires before a computer runs. Item is the ActorID.
	HookPosBeforeRun = &hooking.HookPos{Name: "Before Run"}

	// HookPosAfterRun fires after a computer ran successfully. Item is the
	// ActorID and Detail the produced outgoing queue.
	HookPosAfterRun = &hooking.HookPos{Name: "After Run"}

	// HookPosRunFailed fires when a computer fails. Item is the
	// sim.ActorFailure.
	HookPosRunFailed = &hooking.HookPos{Name: "Run Failed"}

	// HookPosMsgDelivered fires for every delivered message. Item is the
	// Delivery.
	HookPosMsgDelivered = &hooking.HookPos{Name: "Msg Delivered"}

	// HookPosMsgDropped fires for every dropped message. Item is the
	// Delivery, whose Reason tells why.
	HookPosMsgDropped = &hooking.HookPos{Name: "Msg Dropped"}
)

// DropReason explains why a message was not delivered.
type DropReason string

// The reasons for dropping a message.
const (
	// DropNone marks a delivered message.
	DropNone DropReason = ""

	// DropNotAdjacent marks a message sent on an edge that was not given to
	// the sender when it ran.
	DropNotAdjacent DropReason = "not-adjacent"

	// DropUnroutable marks a message whose edge vanished, or whose sender is
	// no longer an endpoint of the edge.
	DropUnroutable DropReason = "unroutable"
)

// A Delivery describes the fate of one message.
type Delivery struct {
	Tick   uint64
	From   sim.ActorID
	To     sim.ActorID
	Msg    sim.Message
	Reason DropReason
}

// Delivered checks if the message reached an actor.
func (d Delivery) Delivered() bool {
	return d.Reason == DropNone
}
