package sim

import (
	"encoding/json"
	"fmt"
)

// PayloadKind tells the variant of a Payload.
type PayloadKind string

// The payload kinds known to the engine.
const (
	PayloadBlank      PayloadKind = "blank"
	PayloadPathVector PayloadKind = "path_vector"
)

// A Payload is the data carried by a message. Payloads are immutable.
type Payload interface {
	Kind() PayloadKind
}

// Blank is a payload that carries no data.
type Blank struct{}

// Kind returns PayloadBlank.
func (Blank) Kind() PayloadKind {
	return PayloadBlank
}

// PathVector is a payload that accumulates the actors a message has
// traversed, as used by path-vector routing protocols.
type PathVector struct {
	path []ActorID
}

// NewPathVector creates a PathVector holding a copy of path.
func NewPathVector(path ...ActorID) PathVector {
	return PathVector{path: append([]ActorID(nil), path...)}
}

// Kind returns PayloadPathVector.
func (PathVector) Kind() PayloadKind {
	return PayloadPathVector
}

// Path returns a copy of the traversed actors, oldest first.
func (v PathVector) Path() []ActorID {
	return append([]ActorID(nil), v.path...)
}

// Len returns the number of hops recorded.
func (v PathVector) Len() int {
	return len(v.path)
}

// Origin returns the first actor of the path.
func (v PathVector) Origin() (ActorID, bool) {
	if len(v.path) == 0 {
		return 0, false
	}

	return v.path[0], true
}

// Contains checks if the actor is already on the path.
func (v PathVector) Contains(actor ActorID) bool {
	for _, a := range v.path {
		if a == actor {
			return true
		}
	}

	return false
}

// Extend returns a new PathVector with actor appended. The receiver is left
// untouched.
func (v PathVector) Extend(actor ActorID) PathVector {
	path := make([]ActorID, len(v.path), len(v.path)+1)
	copy(path, v.path)

	return PathVector{path: append(path, actor)}
}

type payloadJSON struct {
	Kind PayloadKind `json:"kind"`
	Path []ActorID   `json:"path,omitempty"`
}

func marshalPayload(p Payload) ([]byte, error) {
	switch p := p.(type) {
	case nil, Blank:
		return json.Marshal(payloadJSON{Kind: PayloadBlank})
	case PathVector:
		return json.Marshal(payloadJSON{Kind: PayloadPathVector, Path: p.path})
	default:
		return nil, fmt.Errorf("payload kind %q cannot be encoded", p.Kind())
	}
}

func unmarshalPayload(data []byte) (Payload, error) {
	if len(data) == 0 || string(data) == "null" {
		return Blank{}, nil
	}

	var raw payloadJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch raw.Kind {
	case PayloadBlank, "":
		return Blank{}, nil
	case PayloadPathVector:
		return NewPathVector(raw.Path...), nil
	default:
		return nil, fmt.Errorf("unknown payload kind %q", raw.Kind)
	}
}
