// Package id allocates the identifiers used across a simulation.
package id

import (
	"sync/atomic"

	"github.com/rs/xid"
)

// A Generator hands out sequential numeric identifiers, starting from 0.
// Identifiers are never handed out twice by the same generator.
type Generator interface {
	// Next returns a fresh identifier.
	Next() uint64

	// Peek returns the identifier that the next call to Next will return.
	Peek() uint64
}

// NewIDGenerator returns a sequential generator that is safe for concurrent
// use.
func NewIDGenerator() Generator {
	return &sequentialIDGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Next() uint64 {
	return atomic.AddUint64(&g.nextID, 1) - 1
}

func (g *sequentialIDGenerator) Peek() uint64 {
	return atomic.LoadUint64(&g.nextID)
}

// Generate returns a globally unique string identifier. The identifiers are
// not deterministic, so they are only used to name sessions and output files.
func Generate() string {
	return xid.New().String()
}
