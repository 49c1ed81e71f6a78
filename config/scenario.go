package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Behaviors that a scenario can place on an actor.
const (
	BehaviorPathPropagation = "path-propagation"
	BehaviorCounter         = "counter"
	BehaviorPathRelay       = "path-relay"
	BehaviorScripted        = "scripted"
)

// A Scenario describes a network and how long to run it.
type Scenario struct {
	Name   string      `yaml:"name"`
	Ticks  int         `yaml:"ticks"`
	Actors []ActorSpec `yaml:"actors"`
	Edges  [][]string  `yaml:"edges"`
}

// ActorSpec describes one actor of a scenario.
type ActorSpec struct {
	Name     string   `yaml:"name"`
	Behavior string   `yaml:"behavior"`
	Port     uint8    `yaml:"port,omitempty"`
	Command  []string `yaml:"command,omitempty"`
	Env      []string `yaml:"env,omitempty"`
	State    any      `yaml:"state,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}

	return s, nil
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks that actor names are unique, behaviors are known and
// edges join declared actors.
func (s *Scenario) Validate() error {
	if s.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", s.Ticks)
	}

	names := make(map[string]bool, len(s.Actors))

	for i, a := range s.Actors {
		if a.Name == "" {
			return fmt.Errorf("actor %d has no name", i)
		}

		if names[a.Name] {
			return fmt.Errorf("actor %q is declared twice", a.Name)
		}

		names[a.Name] = true

		if err := a.validate(); err != nil {
			return fmt.Errorf("actor %q: %w", a.Name, err)
		}
	}

	for i, e := range s.Edges {
		if len(e) != 2 {
			return fmt.Errorf("edge %d must join exactly two actors", i)
		}

		for _, end := range e {
			if !names[end] {
				return fmt.Errorf("edge %d uses unknown actor %q", i, end)
			}
		}
	}

	return nil
}

func (a ActorSpec) validate() error {
	switch a.Behavior {
	case BehaviorPathPropagation, BehaviorCounter, BehaviorPathRelay:
		if len(a.Command) > 0 {
			return fmt.Errorf("behavior %s takes no command", a.Behavior)
		}
	case BehaviorScripted:
		if len(a.Command) == 0 {
			return fmt.Errorf("scripted behavior needs a command")
		}
	default:
		return fmt.Errorf("unknown behavior %q", a.Behavior)
	}

	return nil
}

// InitialState returns the state of a scripted actor as JSON, or nil if the
// scenario sets none.
func (a ActorSpec) InitialState() (json.RawMessage, error) {
	if a.State == nil {
		return nil, nil
	}

	return json.Marshal(a.State)
}

// WorldName turns the scenario name into a valid world name, as in
// "star-fan-in" to "StarFanIn". It returns "World" if nothing is left.
func (s *Scenario) WorldName() string {
	var b strings.Builder

	upper := true

	for _, r := range s.Name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}

		if b.Len() == 0 && !unicode.IsLetter(r) {
			continue
		}

		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}

		b.WriteRune(r)
	}

	name := b.String()
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return "World"
	}

	return name
}
