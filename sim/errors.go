package sim

import (
	"fmt"
	"strings"
)

// SetupError is returned when a computer fails to set up and is therefore
// not registered.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return "computer setup failed: " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *SetupError) Unwrap() error {
	return e.Err
}

// ActorFailure records that one actor failed to run during one tick.
type ActorFailure struct {
	Actor ActorID
	Err   error
}

func (f ActorFailure) Error() string {
	return fmt.Sprintf("actor %d: %v", f.Actor, f.Err)
}

// Unwrap returns the cause.
func (f ActorFailure) Unwrap() error {
	return f.Err
}

// TickError aggregates the actors that failed during the run phase of one
// tick. The other actors still ran and their messages were still delivered.
type TickError struct {
	Tick     uint64
	Failures []ActorFailure
}

func (e *TickError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}

	return fmt.Sprintf("tick %d: %d actor(s) failed: %s",
		e.Tick, len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *TickError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}

	return errs
}

// FailedActors lists the actors that failed, in the order they ran.
func (e *TickError) FailedActors() []ActorID {
	ids := make([]ActorID, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.Actor)
	}

	return ids
}
