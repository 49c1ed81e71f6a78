// Package topology keeps the undirected multigraph that connects actors and
// resolves which actor sits at the other end of an edge.
package topology

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/id"
)

var (
	// ErrNoSuchNode is returned when an actor is not part of the graph.
	ErrNoSuchNode = errors.New("no such node")

	// ErrNoSuchEdge is returned when an edge is not part of the graph.
	ErrNoSuchEdge = errors.New("no such edge")
)

// An Edge is one connection instance between two actors.
type Edge struct {
	ID   sim.EdgeID
	A, B sim.ActorID
}

// Other returns the endpoint that is not end. It returns false if end is not
// an endpoint of the edge. A self loop resolves to its only endpoint.
func (e Edge) Other(end sim.ActorID) (sim.ActorID, bool) {
	switch end {
	case e.A:
		return e.B, true
	case e.B:
		return e.A, true
	default:
		return 0, false
	}
}

// Joins checks if the edge connects a and b, in either direction.
func (e Edge) Joins(a, b sim.ActorID) bool {
	return (e.A == a && e.B == b) || (e.A == b && e.B == a)
}

// View is the read-only side of a graph.
type View interface {
	Router

	HasNode(node sim.ActorID) bool
	Nodes() []sim.ActorID
	NumNodes() int
	NumEdges() int
	EdgesOf(node sim.ActorID) []sim.EdgeID
	Endpoints(edge sim.EdgeID) (Edge, bool)
	EdgesBetween(a, b sim.ActorID) []sim.EdgeID
	IsConnected(a, b sim.ActorID) bool
}

// Graph is an undirected multigraph keyed by actor id. It is not safe for
// concurrent mutation; concurrent reads are safe while nobody mutates it.
type Graph struct {
	nodeIDs id.Generator
	edgeIDs id.Generator

	// incident edges per node, in ascending EdgeID order.
	incident map[sim.ActorID][]sim.EdgeID
	edges    map[sim.EdgeID]Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodeIDs:  id.NewIDGenerator(),
		edgeIDs:  id.NewIDGenerator(),
		incident: make(map[sim.ActorID][]sim.EdgeID),
		edges:    make(map[sim.EdgeID]Edge),
	}
}

// NextNodeID returns the id that the next AddNode will allocate.
func (g *Graph) NextNodeID() sim.ActorID {
	return sim.ActorID(g.nodeIDs.Peek())
}

// AddNode allocates a fresh node.
func (g *Graph) AddNode() sim.ActorID {
	node := sim.ActorID(g.nodeIDs.Next())
	g.incident[node] = nil

	return node
}

// AddEdge creates a new edge between a and b. Calling it again with the same
// pair creates another, distinct edge.
func (g *Graph) AddEdge(a, b sim.ActorID) (sim.EdgeID, error) {
	if err := g.nodeMustExist(a); err != nil {
		return 0, err
	}

	if err := g.nodeMustExist(b); err != nil {
		return 0, err
	}

	edgeID := sim.EdgeID(g.edgeIDs.Next())
	g.edges[edgeID] = Edge{ID: edgeID, A: a, B: b}

	g.incident[a] = append(g.incident[a], edgeID)
	if a != b {
		g.incident[b] = append(g.incident[b], edgeID)
	}

	return edgeID, nil
}

// RemoveEdge removes an edge.
func (g *Graph) RemoveEdge(edgeID sim.EdgeID) error {
	e, found := g.edges[edgeID]
	if !found {
		return fmt.Errorf("edge %d: %w", edgeID, ErrNoSuchEdge)
	}

	delete(g.edges, edgeID)
	g.incident[e.A] = removeEdgeID(g.incident[e.A], edgeID)

	if e.A != e.B {
		g.incident[e.B] = removeEdgeID(g.incident[e.B], edgeID)
	}

	return nil
}

// RemoveNode removes a node and every edge incident to it.
func (g *Graph) RemoveNode(node sim.ActorID) error {
	if err := g.nodeMustExist(node); err != nil {
		return err
	}

	for _, edgeID := range append([]sim.EdgeID(nil), g.incident[node]...) {
		if err := g.RemoveEdge(edgeID); err != nil {
			return err
		}
	}

	delete(g.incident, node)

	return nil
}

// HasNode checks if the node is in the graph.
func (g *Graph) HasNode(node sim.ActorID) bool {
	_, found := g.incident[node]
	return found
}

// Nodes returns all the nodes in ascending order.
func (g *Graph) Nodes() []sim.ActorID {
	nodes := make([]sim.ActorID, 0, len(g.incident))
	for n := range g.incident {
		nodes = append(nodes, n)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	return nodes
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.incident)
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// EdgesOf returns the edges incident to the node in ascending order. A self
// loop is listed once. The returned slice is owned by the caller.
func (g *Graph) EdgesOf(node sim.ActorID) []sim.EdgeID {
	edges := g.incident[node]
	if len(edges) == 0 {
		return nil
	}

	return append([]sim.EdgeID(nil), edges...)
}

// Endpoints returns the edge record.
func (g *Graph) Endpoints(edgeID sim.EdgeID) (Edge, bool) {
	e, found := g.edges[edgeID]
	return e, found
}

// EdgesBetween returns every edge that joins a and b, in ascending order.
func (g *Graph) EdgesBetween(a, b sim.ActorID) []sim.EdgeID {
	var between []sim.EdgeID

	for _, edgeID := range g.incident[a] {
		if g.edges[edgeID].Joins(a, b) {
			between = append(between, edgeID)
		}
	}

	return between
}

// IsConnected checks if at least one edge joins a and b.
func (g *Graph) IsConnected(a, b sim.ActorID) bool {
	for _, edgeID := range g.incident[a] {
		if g.edges[edgeID].Joins(a, b) {
			return true
		}
	}

	return false
}

func (g *Graph) nodeMustExist(node sim.ActorID) error {
	if !g.HasNode(node) {
		return fmt.Errorf("node %d: %w", node, ErrNoSuchNode)
	}

	return nil
}

func removeEdgeID(edges []sim.EdgeID, edgeID sim.EdgeID) []sim.EdgeID {
	for i, e := range edges {
		if e == edgeID {
			return append(edges[:i:i], edges[i+1:]...)
		}
	}

	return edges
}
