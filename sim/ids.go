package sim

import "strconv"

// ActorID identifies an actor for its whole lifetime. IDs are handed out by
// the world when a computer is registered and are never reused.
type ActorID uint64

// String returns the decimal form of the id.
func (id ActorID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// EdgeID identifies one connection instance between two actors. Two actors
// may be joined by several edges, each with its own EdgeID.
type EdgeID uint64

// String returns the decimal form of the id.
func (id EdgeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Port is a small sub-channel tag carried by every message so that a
// behavior can multiplex several purposes over one edge.
type Port uint8
