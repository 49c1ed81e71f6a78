// Package tracing observes a running world through its hooks and turns what
// happens during each tick into logs, counters and database rows.
package tracing

import (
	"github.com/sarchlab/actornet/sim/hooking"
	"github.com/sarchlab/actornet/sim/naming"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	naming.Named
	hooking.Hookable
}
