package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/hooking"
	"github.com/sarchlab/actornet/sim/world"
)

// CollectTrace let the tracer to collect trace from a domain
func CollectTrace(domain NamedHookable, tracer Tracer) {
	hooks := domain.Hooks()
	for _, hook := range hooks {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	h := traceHook{t: tracer}
	domain.AcceptHook(&h)
}

// A traceHook is a hook that forwards world events to a tracer.
type traceHook struct {
	t    Tracer
	tick uint64
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case world.HookPosTickStart:
		h.tick = ctx.Item.(uint64)
		h.t.StartTick(h.tick)
	case world.HookPosMsgDelivered:
		h.t.Deliver(ctx.Item.(world.Delivery))
	case world.HookPosMsgDropped:
		h.t.Drop(ctx.Item.(world.Delivery))
	case world.HookPosRunFailed:
		h.t.Fail(h.tick, ctx.Item.(sim.ActorFailure))
	case world.HookPosTickEnd:
		err, _ := ctx.Detail.(error)
		h.t.EndTick(ctx.Item.(uint64), err)
	}
}
