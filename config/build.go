package config

import (
	"fmt"
	"sort"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/behaviors"
	"github.com/sarchlab/actornet/sim/scripting"
	"github.com/sarchlab/actornet/sim/world"
)

// A Network is a world built from a scenario, with the scenario names of its
// actors.
type Network struct {
	World *world.World
	Ticks int

	ids   map[string]sim.ActorID
	names map[sim.ActorID]string
}

// ID returns the actor id of a scenario name.
func (n *Network) ID(name string) (sim.ActorID, bool) {
	actorID, ok := n.ids[name]
	return actorID, ok
}

// NameOf returns the scenario name of an actor.
func (n *Network) NameOf(actorID sim.ActorID) string {
	return n.names[actorID]
}

// Names lists the scenario names in actor id order.
func (n *Network) Names() []string {
	ids := make([]sim.ActorID, 0, len(n.names))
	for actorID := range n.names {
		ids = append(ids, actorID)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names := make([]string, 0, len(ids))
	for _, actorID := range ids {
		names = append(names, n.names[actorID])
	}

	return names
}

// Build creates the world described by the scenario. The world is parallel
// if the environment asks for it. Actors are registered in declaration
// order, so the first actor gets id 0.
func Build(s *Scenario, env Env) (*Network, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	b := world.MakeBuilder().
		WithName(s.WorldName()).
		WithMailboxCapacity(env.MailboxCap)
	if env.Parallel {
		b = b.WithParallelExecution()
	}

	n := &Network{
		World: b.Build(),
		Ticks: s.Ticks,
		ids:   make(map[string]sim.ActorID, len(s.Actors)),
		names: make(map[sim.ActorID]string, len(s.Actors)),
	}

	for _, spec := range s.Actors {
		c, err := newComputer(spec, env)
		if err != nil {
			return nil, fmt.Errorf("actor %q: %w", spec.Name, err)
		}

		actorID, err := n.World.AddComputer(c)
		if err != nil {
			return nil, fmt.Errorf("actor %q: %w", spec.Name, err)
		}

		n.ids[spec.Name] = actorID
		n.names[actorID] = spec.Name
	}

	for _, e := range s.Edges {
		if _, err := n.World.Connect(n.ids[e[0]], n.ids[e[1]]); err != nil {
			return nil, fmt.Errorf("edge %s-%s: %w", e[0], e[1], err)
		}
	}

	return n, nil
}

func newComputer(spec ActorSpec, env Env) (sim.Computer, error) {
	port := sim.Port(spec.Port)

	switch spec.Behavior {
	case BehaviorPathPropagation:
		return behaviors.NewPathPropagation().WithPort(port), nil
	case BehaviorCounter:
		return behaviors.NewCounter(), nil
	case BehaviorPathRelay:
		return behaviors.NewPathRelay().WithPort(port), nil
	case BehaviorScripted:
		state, err := spec.InitialState()
		if err != nil {
			return nil, err
		}

		invoker := scripting.NewExecInvoker(spec.Command[0], spec.Command[1:]...).
			WithEnv(spec.Env...)

		return scripting.MakeBuilder().
			WithInvoker(invoker).
			WithTimeout(env.ScriptTimeout).
			WithInitialState(state).
			Build(), nil
	default:
		return nil, fmt.Errorf("unknown behavior %q", spec.Behavior)
	}
}
