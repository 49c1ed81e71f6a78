package scripting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sarchlab/actornet/sim"
)

// ErrInvalidResponse marks a response that cannot be decoded.
var ErrInvalidResponse = errors.New("invalid script response")

// Request is the document sent across the boundary.
type Request struct {
	ID       sim.ActorID     `json:"id"`
	Edges    []sim.EdgeID    `json:"edges"`
	State    json.RawMessage `json:"state,omitempty"`
	Incoming []sim.Message   `json:"incoming"`
}

// Response is the document expected back.
type Response struct {
	State    json.RawMessage `json:"state,omitempty"`
	Outgoing []sim.Message   `json:"outgoing"`
}

// Computer delegates its behavior to an Invoker. Any invoker error, panic,
// timeout or malformed response fails the tick for this actor only and
// leaves the state as it was.
type Computer struct {
	*sim.ComputerBase

	lock    sync.Mutex
	invoker Invoker
	timeout time.Duration
	state   json.RawMessage
}

// Builder can build scripted computers.
type Builder struct {
	invoker Invoker
	timeout time.Duration
	state   json.RawMessage
}

// MakeBuilder creates a builder with a 5 second timeout per call.
func MakeBuilder() Builder {
	return Builder{timeout: 5 * time.Second}
}

// WithInvoker sets the invoker the computer calls.
func (b Builder) WithInvoker(invoker Invoker) Builder {
	b.invoker = invoker
	return b
}

// WithTimeout sets the deadline of each call. Zero disables the deadline.
func (b Builder) WithTimeout(timeout time.Duration) Builder {
	b.timeout = timeout
	return b
}

// WithInitialState sets the state passed on the first call.
func (b Builder) WithInitialState(state json.RawMessage) Builder {
	b.state = append(json.RawMessage(nil), state...)
	return b
}

// Build creates the computer.
func (b Builder) Build() *Computer {
	return &Computer{
		ComputerBase: sim.NewComputerBase(),
		invoker:      b.invoker,
		timeout:      b.timeout,
		state:        b.state,
	}
}

// State returns a copy of the current opaque state.
func (c *Computer) State() json.RawMessage {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append(json.RawMessage(nil), c.state...)
}

// Setup checks that the invoker is present and usable.
func (c *Computer) Setup() error {
	if c.invoker == nil {
		return errors.New("scripted computer has no invoker")
	}

	p, ok := c.invoker.(Preparer)
	if !ok {
		return nil
	}

	ctx, cancel := c.callContext()
	defer cancel()

	return p.Prepare(ctx)
}

// Run sends the tick across the boundary.
func (c *Computer) Run(
	edges []sim.EdgeID,
	incoming sim.Queue,
) (sim.Queue, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	req := Request{
		ID:       c.ID(),
		Edges:    edges,
		State:    c.state,
		Incoming: incoming,
	}
	if req.Edges == nil {
		req.Edges = []sim.EdgeID{}
	}

	if req.Incoming == nil {
		req.Incoming = []sim.Message{}
	}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding script request: %w", err)
	}

	rspBytes, err := c.invoke(reqBytes)
	if err != nil {
		return nil, err
	}

	var rsp Response
	if err := json.Unmarshal(rspBytes, &rsp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(rsp.State) > 0 {
		c.state = rsp.State
	}

	return sim.Queue(rsp.Outgoing), nil
}

func (c *Computer) invoke(req []byte) (rsp []byte, err error) {
	ctx, cancel := c.callContext()
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			rsp = nil
			err = fmt.Errorf("script invoker panicked: %v", r)
		}
	}()

	return c.invoker.Invoke(ctx, req)
}

func (c *Computer) callContext() (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), c.timeout)
}
