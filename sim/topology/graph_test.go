package topology

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/actornet/sim"
)

var _ = Describe("Graph", func() {
	var (
		g    *Graph
		a, b sim.ActorID
		c    sim.ActorID
	)

	BeforeEach(func() {
		g = NewGraph()
		a = g.AddNode()
		b = g.AddNode()
		c = g.AddNode()
	})

	It("should allocate sequential node ids", func() {
		Expect([]sim.ActorID{a, b, c}).To(Equal([]sim.ActorID{0, 1, 2}))
		Expect(g.NextNodeID()).To(Equal(sim.ActorID(3)))
		Expect(g.Nodes()).To(Equal([]sim.ActorID{0, 1, 2}))
		Expect(g.NumNodes()).To(Equal(3))
	})

	It("should create distinct parallel edges", func() {
		e1, err := g.AddEdge(a, b)
		Expect(err).NotTo(HaveOccurred())
		e2, err := g.AddEdge(b, a)
		Expect(err).NotTo(HaveOccurred())

		Expect(e1).NotTo(Equal(e2))
		Expect(g.EdgesOf(a)).To(Equal([]sim.EdgeID{e1, e2}))
		Expect(g.EdgesOf(b)).To(Equal([]sim.EdgeID{e1, e2}))
		Expect(g.EdgesBetween(a, b)).To(Equal([]sim.EdgeID{e1, e2}))
		Expect(g.NumEdges()).To(Equal(2))
		Expect(g.IsConnected(a, b)).To(BeTrue())
		Expect(g.IsConnected(b, a)).To(BeTrue())
		Expect(g.IsConnected(a, c)).To(BeFalse())
	})

	It("should fail to connect unknown nodes", func() {
		_, err := g.AddEdge(a, 42)

		Expect(err).To(MatchError(ErrNoSuchNode))
		Expect(g.NumEdges()).To(Equal(0))
		Expect(g.EdgesOf(a)).To(BeEmpty())
	})

	It("should resolve the endpoint that is not the sender", func() {
		e, _ := g.AddEdge(a, b)

		dst, ok := g.Resolve(e, a)
		Expect(ok).To(BeTrue())
		Expect(dst).To(Equal(b))

		dst, ok = g.Resolve(e, b)
		Expect(ok).To(BeTrue())
		Expect(dst).To(Equal(a))
	})

	It("should not resolve for a sender that is not an endpoint", func() {
		e, _ := g.AddEdge(a, b)

		_, ok := g.Resolve(e, c)

		Expect(ok).To(BeFalse())
	})

	It("should not resolve removed edges", func() {
		e, _ := g.AddEdge(a, b)
		Expect(g.RemoveEdge(e)).To(Succeed())

		_, ok := g.Resolve(e, a)

		Expect(ok).To(BeFalse())
		Expect(g.EdgesOf(a)).To(BeEmpty())
		Expect(g.RemoveEdge(e)).To(MatchError(ErrNoSuchEdge))
	})

	It("should list a self loop once and resolve it to the sender", func() {
		e, err := g.AddEdge(a, a)
		Expect(err).NotTo(HaveOccurred())

		Expect(g.EdgesOf(a)).To(Equal([]sim.EdgeID{e}))

		dst, ok := g.Resolve(e, a)
		Expect(ok).To(BeTrue())
		Expect(dst).To(Equal(a))

		Expect(g.RemoveEdge(e)).To(Succeed())
		Expect(g.EdgesOf(a)).To(BeEmpty())
	})

	It("should remove incident edges with a node", func() {
		ab, _ := g.AddEdge(a, b)
		bc, _ := g.AddEdge(b, c)
		ac, _ := g.AddEdge(a, c)

		Expect(g.RemoveNode(b)).To(Succeed())

		Expect(g.HasNode(b)).To(BeFalse())
		Expect(g.EdgesOf(a)).To(Equal([]sim.EdgeID{ac}))
		Expect(g.EdgesOf(c)).To(Equal([]sim.EdgeID{ac}))
		_, found := g.Endpoints(ab)
		Expect(found).To(BeFalse())
		_, found = g.Endpoints(bc)
		Expect(found).To(BeFalse())
		Expect(g.RemoveNode(b)).To(MatchError(ErrNoSuchNode))
	})

	It("should not reuse ids of removed nodes and edges", func() {
		e, _ := g.AddEdge(a, b)
		Expect(g.RemoveNode(c)).To(Succeed())
		Expect(g.RemoveEdge(e)).To(Succeed())

		d := g.AddNode()
		e2, _ := g.AddEdge(a, d)

		Expect(d).To(Equal(sim.ActorID(3)))
		Expect(e2).To(Equal(e + 1))
	})

	It("should keep edges ordered after removals", func() {
		e1, _ := g.AddEdge(a, b)
		e2, _ := g.AddEdge(a, c)
		e3, _ := g.AddEdge(a, b)

		listed := g.EdgesOf(a)
		Expect(g.RemoveEdge(e2)).To(Succeed())

		Expect(g.EdgesOf(a)).To(Equal([]sim.EdgeID{e1, e3}))
		Expect(listed).To(Equal([]sim.EdgeID{e1, e2, e3}))
	})
})
