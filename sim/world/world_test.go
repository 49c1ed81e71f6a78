package world

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/behaviors"
	"github.com/sarchlab/actornet/sim/hooking"
)

type setupComputer struct {
	*sim.ComputerBase

	setup func() error
	ran   int
}

func newSetupComputer(setup func() error) *setupComputer {
	return &setupComputer{
		ComputerBase: sim.NewComputerBase(),
		setup:        setup,
	}
}

func (c *setupComputer) Setup() error {
	return c.setup()
}

func (c *setupComputer) Run(
	_ []sim.EdgeID,
	_ sim.Queue,
) (sim.Queue, error) {
	c.ran++
	return nil, nil
}

func mustAdd(w *World, c sim.Computer) sim.ActorID {
	id, err := w.AddComputer(c)
	Expect(err).NotTo(HaveOccurred())

	return id
}

func mustConnect(w *World, a, b sim.ActorID) sim.EdgeID {
	e, err := w.Connect(a, b)
	Expect(err).NotTo(HaveOccurred())

	return e
}

func hookFunc(f func(pos string, item interface{})) hooking.Hook {
	return hooking.HookFunc(func(ctx hooking.HookCtx) {
		f(ctx.Pos.Name, ctx.Item)
	})
}

// buildStar places three leaves around a hub, two of them also joined
// together, and two more leaves behind the hub.
func buildStar(w *World) map[string]sim.ActorID {
	ids := make(map[string]sim.ActorID)
	for _, name := range []string{"A1", "A2", "A3", "B1", "C1", "C2"} {
		ids[name] = mustAdd(w, behaviors.NewPathPropagation())
	}

	for _, pair := range [][2]string{
		{"A1", "A2"},
		{"A1", "B1"},
		{"A2", "B1"},
		{"A3", "B1"},
		{"B1", "C1"},
		{"B1", "C2"},
	} {
		mustConnect(w, ids[pair[0]], ids[pair[1]])
	}

	return ids
}

func incomingOf(w *World, id sim.ActorID) sim.Queue {
	view, found := w.Actor(id)
	Expect(found).To(BeTrue())

	return view.Incoming
}

var _ = Describe("World", func() {
	var (
		mockCtrl *gomock.Controller
		w        *World
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		w = New()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("registration", func() {
		It("should assign sequential ids", func() {
			a := behaviors.NewPathPropagation()
			b := behaviors.NewPathPropagation()

			Expect(mustAdd(w, a)).To(Equal(sim.ActorID(0)))
			Expect(mustAdd(w, b)).To(Equal(sim.ActorID(1)))
			Expect(a.ID()).To(Equal(sim.ActorID(0)))
			Expect(b.ID()).To(Equal(sim.ActorID(1)))
			Expect(w.Actors()).To(Equal([]sim.ActorID{0, 1}))
		})

		It("should assign the id before setup", func() {
			var seen sim.ActorID = 99
			c := newSetupComputer(nil)
			c.setup = func() error {
				seen = c.ID()
				return nil
			}

			mustAdd(w, behaviors.NewCounter())
			mustAdd(w, c)

			Expect(seen).To(Equal(sim.ActorID(1)))
		})

		It("should leave the world unchanged if setup fails", func() {
			cause := errors.New("no script")
			c := newSetupComputer(func() error { return cause })

			_, err := w.AddComputer(c)

			var setupErr *sim.SetupError
			Expect(errors.As(err, &setupErr)).To(BeTrue())
			Expect(errors.Is(err, cause)).To(BeTrue())
			Expect(w.Actors()).To(BeEmpty())
			Expect(w.Topology().NumNodes()).To(Equal(0))

			Expect(mustAdd(w, behaviors.NewCounter())).
				To(Equal(sim.ActorID(0)))
		})

		It("should register a computer again after a failed setup", func() {
			failing := true
			c := newSetupComputer(func() error {
				if failing {
					return errors.New("not ready")
				}

				return nil
			})

			_, err := w.AddComputer(c)
			Expect(err).To(HaveOccurred())
			Expect(c.Assigned()).To(BeFalse())

			Expect(mustAdd(w, behaviors.NewCounter())).
				To(Equal(sim.ActorID(0)))

			failing = false
			Expect(mustAdd(w, c)).To(Equal(sim.ActorID(1)))
			Expect(c.ID()).To(Equal(sim.ActorID(1)))
		})

		It("should turn a panicking setup into a setup error", func() {
			c := newSetupComputer(func() error { panic("oops") })

			_, err := w.AddComputer(c)

			Expect(err).To(MatchError(ContainSubstring("oops")))
			Expect(w.Actors()).To(BeEmpty())
		})

		It("should call AssignID on registration", func() {
			c := NewMockComputer(mockCtrl)
			c.EXPECT().AssignID(sim.ActorID(0))

			Expect(mustAdd(w, c)).To(Equal(sim.ActorID(0)))
		})

		It("should remove a computer with its edges", func() {
			a := mustAdd(w, behaviors.NewPathPropagation())
			b := mustAdd(w, behaviors.NewPathPropagation())
			mustConnect(w, a, b)

			removed, err := w.RemoveComputer(a)

			Expect(err).NotTo(HaveOccurred())
			Expect(removed.ID()).To(Equal(a))
			Expect(w.Actors()).To(Equal([]sim.ActorID{b}))
			Expect(w.IsConnected(a, b)).To(BeFalse())
			Expect(w.Topology().EdgesOf(b)).To(BeEmpty())

			_, found := w.Actor(a)
			Expect(found).To(BeFalse())
		})

		It("should not reuse the id of a removed computer", func() {
			a := mustAdd(w, behaviors.NewCounter())
			_, err := w.RemoveComputer(a)
			Expect(err).NotTo(HaveOccurred())

			Expect(mustAdd(w, behaviors.NewCounter())).
				To(Equal(sim.ActorID(1)))
		})

		It("should inspect a live computer", func() {
			counter := behaviors.NewCounter()
			a := mustAdd(w, counter)

			var seen sim.Computer
			Expect(w.InspectComputer(a, func(c sim.Computer) { seen = c })).
				To(BeTrue())
			Expect(seen).To(BeIdenticalTo(counter))

			Expect(w.InspectComputer(7, func(sim.Computer) {
				Fail("inspected a missing actor")
			})).To(BeFalse())
		})

		It("should fail to remove an unknown computer", func() {
			_, err := w.RemoveComputer(4)

			Expect(errors.Is(err, ErrNoSuchActor)).To(BeTrue())
		})

		It("should fail to connect an unknown actor", func() {
			a := mustAdd(w, behaviors.NewCounter())

			_, err := w.Connect(a, 7)

			Expect(errors.Is(err, ErrNoSuchActor)).To(BeTrue())
			Expect(w.Topology().NumEdges()).To(Equal(0))
		})

		It("should disconnect the oldest edge of a pair", func() {
			a := mustAdd(w, behaviors.NewCounter())
			b := mustAdd(w, behaviors.NewCounter())
			e1 := mustConnect(w, a, b)
			e2 := mustConnect(w, b, a)

			Expect(w.DisconnectPair(a, b)).To(Succeed())
			Expect(w.Topology().EdgesBetween(a, b)).
				To(Equal([]sim.EdgeID{e2}))
			_, found := w.Topology().Endpoints(e1)
			Expect(found).To(BeFalse())

			Expect(w.DisconnectPair(a, b)).To(Succeed())
			Expect(w.IsConnected(a, b)).To(BeFalse())

			err := w.DisconnectPair(a, b)
			Expect(errors.Is(err, ErrNotConnected)).To(BeTrue())
		})
	})

	Context("naming", func() {
		It("should name actors after the world", func() {
			a := mustAdd(w, behaviors.NewCounter())

			Expect(w.ActorName(a)).To(Equal("World.Actor[0]"))
		})

		It("should find an actor by name", func() {
			mustAdd(w, behaviors.NewCounter())
			b := mustAdd(w, behaviors.NewCounter())

			view, found := w.ActorByName("World.Actor[1]")

			Expect(found).To(BeTrue())
			Expect(view.ID).To(Equal(b))
		})

		It("should not find actors that do not exist", func() {
			mustAdd(w, behaviors.NewCounter())

			_, found := w.ActorByName("World.Actor[3]")
			Expect(found).To(BeFalse())

			_, found = w.ActorByName("Other.Actor[0]")
			Expect(found).To(BeFalse())

			_, found = w.ActorByName("not a name")
			Expect(found).To(BeFalse())
		})
	})

	Context("phases", func() {
		var (
			a, b  sim.ActorID
			edge  sim.EdgeID
			ppA   *behaviors.PathPropagation
			ppB   *behaviors.PathPropagation
			drops []Delivery
		)

		BeforeEach(func() {
			ppA = behaviors.NewPathPropagation()
			ppB = behaviors.NewPathPropagation()
			a = mustAdd(w, ppA)
			b = mustAdd(w, ppB)
			edge = mustConnect(w, a, b)

			drops = nil
			w.AcceptHook(hookFunc(func(pos string, item interface{}) {
				if pos == HookPosMsgDropped.Name {
					drops = append(drops, item.(Delivery))
				}
			}))
		})

		It("should fill outgoing but not incoming when running", func() {
			Expect(w.RunComputers()).To(Succeed())

			viewA, _ := w.Actor(a)
			viewB, _ := w.Actor(b)
			Expect(viewA.OutgoingLen()).To(Equal(1))
			Expect(viewB.OutgoingLen()).To(Equal(1))
			Expect(viewA.IncomingLen()).To(Equal(0))
			Expect(viewB.IncomingLen()).To(Equal(0))
		})

		It("should deliver each message across its edge", func() {
			Expect(w.Tick()).To(Succeed())

			inA := incomingOf(w, a)
			inB := incomingOf(w, b)
			Expect(inA).To(HaveLen(1))
			Expect(inB).To(HaveLen(1))
			Expect(inA.At(0).Edge).To(Equal(edge))
			Expect(inB.At(0).Edge).To(Equal(edge))
			Expect(inA.At(0).Data).To(Equal(sim.NewPathVector(b)))
			Expect(inB.At(0).Data).To(Equal(sim.NewPathVector(a)))
		})

		It("should clear outgoing after a tick", func() {
			Expect(w.Tick()).To(Succeed())

			viewA, _ := w.Actor(a)
			Expect(viewA.IncomingLen()).To(Equal(1))
			Expect(viewA.OutgoingLen()).To(Equal(0))
			Expect(w.CurrentTick()).To(Equal(uint64(1)))
		})

		It("should keep outgoing when asked", func() {
			Expect(w.RunComputers()).To(Succeed())
			w.DeliverMessages(false)

			viewA, _ := w.Actor(a)
			Expect(viewA.IncomingLen()).To(Equal(1))
			Expect(viewA.OutgoingLen()).To(Equal(1))
		})

		It("should hold only the last tick's messages", func() {
			Expect(w.RunTicks(2)).To(Succeed())

			Expect(incomingOf(w, a)).To(HaveLen(1))
			Expect(incomingOf(w, b)).To(HaveLen(1))
			Expect(w.CurrentTick()).To(Equal(uint64(2)))
		})

		It("should reset incoming idempotently", func() {
			Expect(w.Tick()).To(Succeed())

			w.ResetIncoming()
			Expect(incomingOf(w, a)).To(BeEmpty())
			Expect(incomingOf(w, b)).To(BeEmpty())

			w.ResetIncoming()
			Expect(incomingOf(w, a)).To(BeEmpty())
			Expect(incomingOf(w, b)).To(BeEmpty())
		})

		It("should drop messages on an edge removed before delivery", func() {
			Expect(w.RunComputers()).To(Succeed())
			Expect(w.Disconnect(edge)).To(Succeed())

			w.DeliverMessages(true)

			Expect(incomingOf(w, a)).To(BeEmpty())
			Expect(incomingOf(w, b)).To(BeEmpty())
			Expect(drops).To(HaveLen(2))
			Expect(drops[0].Reason).To(Equal(DropUnroutable))
			Expect(drops[1].Reason).To(Equal(DropUnroutable))
		})

		It("should drop messages to an actor removed before delivery",
			func() {
				Expect(w.RunComputers()).To(Succeed())
				_, err := w.RemoveComputer(b)
				Expect(err).NotTo(HaveOccurred())

				w.DeliverMessages(true)

				Expect(incomingOf(w, a)).To(BeEmpty())
				Expect(drops).To(HaveLen(1))
				Expect(drops[0].From).To(Equal(a))
			})
	})

	It("should route parallel edges separately", func() {
		a := mustAdd(w, behaviors.NewPathPropagation())
		b := mustAdd(w, behaviors.NewCounter())
		e1 := mustConnect(w, a, b)
		e2 := mustConnect(w, a, b)

		Expect(w.Tick()).To(Succeed())

		in := incomingOf(w, b)
		Expect(in).To(HaveLen(2))
		Expect(in.At(0).Edge).To(Equal(e1))
		Expect(in.At(1).Edge).To(Equal(e2))
	})

	It("should deliver a self loop back to the sender", func() {
		a := mustAdd(w, behaviors.NewPathPropagation())
		loop := mustConnect(w, a, a)

		Expect(w.Tick()).To(Succeed())

		in := incomingOf(w, a)
		Expect(in).To(HaveLen(1))
		Expect(in.At(0).Edge).To(Equal(loop))
	})

	It("should let a computer see the previous tick's messages", func() {
		counter := behaviors.NewCounter()
		a := mustAdd(w, behaviors.NewPathPropagation())
		c := mustAdd(w, counter)
		mustConnect(w, a, c)

		Expect(w.RunTicks(3)).To(Succeed())

		Expect(counter.Count()).To(Equal(uint64(2)))
		Expect(incomingOf(w, c)).To(HaveLen(1))
	})

	It("should count fan-in at the center of a star", func() {
		hub := mustAdd(w, behaviors.NewCounter())

		for i := 0; i < 5; i++ {
			leaf := mustAdd(w, behaviors.NewPathPropagation())
			mustConnect(w, leaf, hub)
		}

		Expect(w.Tick()).To(Succeed())

		Expect(incomingOf(w, hub)).To(HaveLen(5))
	})

	It("should give messages one per edge in a star with a ring", func() {
		ids := buildStar(w)

		Expect(w.Tick()).To(Succeed())

		Expect(incomingOf(w, ids["A1"])).To(HaveLen(2))
		Expect(incomingOf(w, ids["A2"])).To(HaveLen(2))
		Expect(incomingOf(w, ids["A3"])).To(HaveLen(1))
		Expect(incomingOf(w, ids["B1"])).To(HaveLen(5))
		Expect(incomingOf(w, ids["C1"])).To(HaveLen(1))
		Expect(incomingOf(w, ids["C2"])).To(HaveLen(1))

		for name, id := range ids {
			Expect(incomingOf(w, id)).
				To(HaveLen(len(w.Topology().EdgesOf(id))), name)
		}
	})

	Context("failures", func() {
		It("should isolate a failing computer", func() {
			failing := NewMockComputer(mockCtrl)
			failing.EXPECT().AssignID(gomock.Any())
			failing.EXPECT().
				Run(gomock.Any(), gomock.Any()).
				Return(sim.Queue{sim.NewMessage(0, sim.Blank{})},
					errors.New("boom"))

			f := mustAdd(w, failing)
			p := mustAdd(w, behaviors.NewPathPropagation())
			mustConnect(w, f, p)

			err := w.Tick()

			var tickErr *sim.TickError
			Expect(errors.As(err, &tickErr)).To(BeTrue())
			Expect(tickErr.Tick).To(Equal(uint64(0)))
			Expect(tickErr.FailedActors()).To(Equal([]sim.ActorID{f}))
			Expect(err).To(MatchError(ContainSubstring("boom")))
			Expect(incomingOf(w, f)).To(HaveLen(1))
			Expect(incomingOf(w, p)).To(BeEmpty())
		})

		It("should recover a panicking computer", func() {
			panicking := NewMockComputer(mockCtrl)
			panicking.EXPECT().AssignID(gomock.Any())
			panicking.EXPECT().
				Run(gomock.Any(), gomock.Any()).
				DoAndReturn(func(
					_ []sim.EdgeID,
					_ sim.Queue,
				) (sim.Queue, error) {
					panic("bad behavior")
				})

			f := mustAdd(w, panicking)
			p := mustAdd(w, behaviors.NewPathPropagation())
			mustConnect(w, f, p)

			err := w.Tick()

			Expect(err).To(MatchError(ContainSubstring("bad behavior")))
			Expect(incomingOf(w, f)).To(HaveLen(1))
		})

		It("should join the errors of several ticks", func() {
			failing := NewMockComputer(mockCtrl)
			failing.EXPECT().AssignID(gomock.Any())
			failing.EXPECT().
				Run(gomock.Any(), gomock.Any()).
				Return(nil, errors.New("boom")).
				Times(3)
			mustAdd(w, failing)

			err := w.RunTicks(3)

			Expect(err).To(HaveOccurred())
			Expect(w.CurrentTick()).To(Equal(uint64(3)))
		})

		It("should drop messages on edges that were not given", func() {
			var drops []Delivery
			w.AcceptHook(hookFunc(func(pos string, item interface{}) {
				if pos == HookPosMsgDropped.Name {
					drops = append(drops, item.(Delivery))
				}
			}))

			sender := NewMockComputer(mockCtrl)
			sender.EXPECT().AssignID(gomock.Any())

			s := mustAdd(w, sender)
			c := mustAdd(w, behaviors.NewCounter())
			d := mustAdd(w, behaviors.NewCounter())
			edge := mustConnect(w, s, c)
			foreign := mustConnect(w, c, d)

			sender.EXPECT().
				Run([]sim.EdgeID{edge}, gomock.Any()).
				Return(sim.Queue{
					sim.NewMessage(foreign, sim.Blank{}),
					sim.NewMessage(edge, sim.Blank{}),
				}, nil)

			Expect(w.Tick()).To(Succeed())

			Expect(incomingOf(w, c)).To(HaveLen(1))
			Expect(incomingOf(w, d)).To(BeEmpty())
			Expect(drops).To(HaveLen(1))
			Expect(drops[0].Reason).To(Equal(DropNotAdjacent))
			Expect(drops[0].Msg.Edge).To(Equal(foreign))
		})
	})

	Context("hooks", func() {
		It("should fire the tick positions in order", func() {
			hook := NewMockHook(mockCtrl)
			var fired []string
			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					fired = append(fired, ctx.Pos.Name)
				}).
				AnyTimes()
			w.AcceptHook(hook)

			a := mustAdd(w, behaviors.NewPathPropagation())
			b := mustAdd(w, behaviors.NewCounter())
			mustConnect(w, a, b)

			Expect(w.Tick()).To(Succeed())

			Expect(fired).To(Equal([]string{
				HookPosTickStart.Name,
				HookPosBeforeRun.Name,
				HookPosAfterRun.Name,
				HookPosBeforeRun.Name,
				HookPosAfterRun.Name,
				HookPosMsgDelivered.Name,
				HookPosTickEnd.Name,
			}))
		})
	})
})
