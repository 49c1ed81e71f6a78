package behaviors

import (
	"sort"
	"sync"

	"github.com/sarchlab/actornet/sim"
)

// A Route is the best path a PathRelay has learned towards an origin.
type Route struct {
	Origin sim.ActorID
	Path   []sim.ActorID
	Via    sim.EdgeID
}

// PathRelay is a path-vector router. It floods its own advertisement on the
// first tick, then forwards every advertisement it has not already relayed,
// with its own id appended, on every edge except the one it arrived on.
// Advertisements whose path already contains the relay are discarded, which
// keeps the flood loop free. The shortest path per origin is kept as a
// route.
type PathRelay struct {
	*sim.ComputerBase

	lock       sync.Mutex
	port       sim.Port
	advertised bool
	routes     map[sim.ActorID]Route
}

// NewPathRelay creates a PathRelay with an empty route table.
func NewPathRelay() *PathRelay {
	return &PathRelay{
		ComputerBase: sim.NewComputerBase(),
		routes:       make(map[sim.ActorID]Route),
	}
}

// WithPort sets the port the relay listens and sends on. Messages on other
// ports are ignored.
func (c *PathRelay) WithPort(port sim.Port) *PathRelay {
	c.port = port
	return c
}

// Run learns routes from the incoming advertisements and relays them.
func (c *PathRelay) Run(
	edges []sim.EdgeID,
	incoming sim.Queue,
) (sim.Queue, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	var outgoing sim.Queue

	if !c.advertised {
		c.advertised = true
		outgoing = c.flood(outgoing, edges, sim.NewPathVector(c.ID()), nil)
	}

	for _, msg := range incoming {
		pv, ok := msg.Data.(sim.PathVector)
		if !ok || msg.Port != c.port || pv.Contains(c.ID()) {
			continue
		}

		if !c.learn(pv, msg.Edge) {
			continue
		}

		arrivedOn := msg.Edge
		outgoing = c.flood(outgoing, edges, pv.Extend(c.ID()), &arrivedOn)
	}

	return outgoing, nil
}

// learn records the path if it is the first or a shorter one towards its
// origin. It reports whether the advertisement is news worth relaying.
func (c *PathRelay) learn(pv sim.PathVector, via sim.EdgeID) bool {
	origin, ok := pv.Origin()
	if !ok {
		return false
	}

	known, found := c.routes[origin]
	if found && len(known.Path) <= pv.Len() {
		return false
	}

	c.routes[origin] = Route{Origin: origin, Path: pv.Path(), Via: via}

	return true
}

func (c *PathRelay) flood(
	outgoing sim.Queue,
	edges []sim.EdgeID,
	pv sim.PathVector,
	except *sim.EdgeID,
) sim.Queue {
	for _, edge := range edges {
		if except != nil && edge == *except {
			continue
		}

		outgoing.Push(sim.MsgBuilder{}.
			WithPort(c.port).
			WithEdge(edge).
			WithData(pv).
			Build())
	}

	return outgoing
}

// Routes returns the learned routes ordered by origin.
func (c *PathRelay) Routes() []Route {
	c.lock.Lock()
	defer c.lock.Unlock()

	routes := make([]Route, 0, len(c.routes))
	for _, r := range c.routes {
		r.Path = append([]sim.ActorID(nil), r.Path...)
		routes = append(routes, r)
	}

	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Origin < routes[j].Origin
	})

	return routes
}

// RouteTo returns the route towards an origin.
func (c *PathRelay) RouteTo(origin sim.ActorID) (Route, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	r, found := c.routes[origin]
	if found {
		r.Path = append([]sim.ActorID(nil), r.Path...)
	}

	return r, found
}
