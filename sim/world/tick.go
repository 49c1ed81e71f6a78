package world

import (
	"errors"

	"github.com/sarchlab/actornet/sim"
)

// Tick runs one full cycle. Every incoming queue is taken and cleared, each
// computer runs on what it took, then the outgoing queues are delivered and
// cleared. A computer therefore sees exactly the messages delivered during
// the previous tick. The returned error, if any, is a *sim.TickError listing
// the computers that failed; all the others still ran and had their messages
// delivered.
func (w *World) Tick() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.invokeHook(HookPosTickStart, w.tick, nil)

	err := w.runComputers(true)
	w.deliverMessages(true)

	w.invokeHook(HookPosTickEnd, w.tick, err)
	w.tick++

	return err
}

// RunTicks runs n ticks. It does not stop on failures; the errors of all the
// ticks are joined.
func (w *World) RunTicks(n int) error {
	var errs []error

	for i := 0; i < n; i++ {
		if err := w.Tick(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// RunComputers runs the run phase only. Each computer gets a copy of its
// incoming queue, which is left in place. Each computer's result replaces
// its outgoing queue; a failed computer gets an empty outgoing queue.
func (w *World) RunComputers() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.runComputers(false)
}

// DeliverMessages runs the deliver phase only. Unroutable messages are
// dropped silently. If clearOutgoing is false, the outgoing queues keep
// their messages so that they can be inspected.
func (w *World) DeliverMessages(clearOutgoing bool) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.deliverMessages(clearOutgoing)
}

// ResetIncoming empties every incoming queue.
func (w *World) ResetIncoming() {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.resetIncoming()
}

func (w *World) resetIncoming() {
	for _, s := range w.slots {
		if s != nil {
			s.incoming.Clear()
		}
	}
}

// runComputers runs every computer. If consume is set, the incoming queues
// are drained into the jobs instead of copied.
func (w *World) runComputers(consume bool) error {
	jobs := make([]runJob, 0, len(w.slots))

	for i, s := range w.slots {
		if s == nil {
			continue
		}

		actorID := sim.ActorID(i)
		edges := w.graph.EdgesOf(actorID)

		s.allowed = make(map[sim.EdgeID]struct{}, len(edges))
		for _, e := range edges {
			s.allowed[e] = struct{}{}
		}

		incoming := s.incoming.Clone()
		if consume {
			s.incoming.Clear()
		}

		jobs = append(jobs, runJob{
			id:       actorID,
			computer: s.computer,
			edges:    edges,
			incoming: incoming,
		})
	}

	results := w.engine.run(jobs, w.beforeRun, w.afterRun)

	var failures []sim.ActorFailure

	for _, res := range results {
		s := w.slots[res.id]

		if res.err != nil {
			s.outgoing = nil
			failures = append(failures, sim.ActorFailure{
				Actor: res.id,
				Err:   res.err,
			})

			continue
		}

		s.outgoing = res.outgoing.Clone()
	}

	if len(failures) > 0 {
		return &sim.TickError{Tick: w.tick, Failures: failures}
	}

	return nil
}

func (w *World) beforeRun(job runJob) {
	w.invokeHook(HookPosBeforeRun, job.id, nil)
}

func (w *World) afterRun(res runResult) {
	if res.err != nil {
		w.invokeHook(HookPosRunFailed,
			sim.ActorFailure{Actor: res.id, Err: res.err}, nil)
		return
	}

	w.invokeHook(HookPosAfterRun, res.id, res.outgoing)
}

func (w *World) deliverMessages(clearOutgoing bool) {
	routes := make([][]route, 0, len(w.slots))

	for i, s := range w.slots {
		if s == nil {
			continue
		}

		senderRoutes := w.routeOutgoing(sim.ActorID(i), s)
		if len(senderRoutes) > 0 {
			routes = append(routes, senderRoutes)
		}

		if clearOutgoing {
			s.outgoing = nil
		}
	}

	w.engine.deliver(w.slots, routes)
}

func (w *World) routeOutgoing(from sim.ActorID, s *slot) []route {
	var routes []route

	for _, msg := range s.outgoing {
		d := Delivery{Tick: w.tick, From: from, Msg: msg}

		if _, given := s.allowed[msg.Edge]; !given {
			d.Reason = DropNotAdjacent
			w.invokeHook(HookPosMsgDropped, d, nil)

			continue
		}

		to, ok := w.graph.Resolve(msg.Edge, from)
		if !ok {
			d.Reason = DropUnroutable
			w.invokeHook(HookPosMsgDropped, d, nil)

			continue
		}

		if _, err := w.slotOf(to); err != nil {
			d.Reason = DropUnroutable
			w.invokeHook(HookPosMsgDropped, d, nil)

			continue
		}

		d.To = to
		routes = append(routes, route{to: to, msg: msg})
		w.invokeHook(HookPosMsgDelivered, d, nil)
	}

	return routes
}
