// Package scripting runs actors whose behavior lives outside of Go, behind a
// synchronous request/response boundary.
//
// On every tick the scripted computer sends one JSON request:
//
//	{"id": 3, "edges": [0, 4], "state": <opaque>, "incoming": [<message>...]}
//
// and expects one JSON response:
//
//	{"state": <opaque>, "outgoing": [<message>...]}
//
// where a message is {"port": 0, "edge": 4, "data": {"kind": "blank"}} or
// {"port": 0, "edge": 4, "data": {"kind": "path_vector", "path": [3]}}.
// The state is never interpreted by the engine; it is handed back on the next
// call. A response without a state keeps the previous one.
package scripting

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// killGrace bounds how long a killed program may keep its output open.
const killGrace = time.Second

// An Invoker carries one request across the scripting boundary and returns
// the response. Calls are synchronous.
type Invoker interface {
	Invoke(ctx context.Context, request []byte) ([]byte, error)
}

// A Preparer is an Invoker that can check that it is usable before the
// first call.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// InvokerFunc turns a function into an Invoker.
type InvokerFunc func(ctx context.Context, request []byte) ([]byte, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(
	ctx context.Context,
	request []byte,
) ([]byte, error) {
	return f(ctx, request)
}

// ExecInvoker runs an external program for every call. The request is
// written to the program's stdin and the response is read from its stdout.
// A non-zero exit status is a failure.
type ExecInvoker struct {
	command string
	args    []string
	env     []string
}

// NewExecInvoker creates an invoker that runs command with args.
func NewExecInvoker(command string, args ...string) *ExecInvoker {
	return &ExecInvoker{
		command: command,
		args:    append([]string(nil), args...),
	}
}

// WithEnv adds environment variables, in "KEY=value" form, to the program's
// environment.
func (e *ExecInvoker) WithEnv(env ...string) *ExecInvoker {
	e.env = append(e.env, env...)
	return e
}

// Prepare checks that the program can be found.
func (e *ExecInvoker) Prepare(_ context.Context) error {
	if _, err := exec.LookPath(e.command); err != nil {
		return fmt.Errorf("script command %q: %w", e.command, err)
	}

	return nil
}

// Invoke runs the program once.
func (e *ExecInvoker) Invoke(
	ctx context.Context,
	request []byte,
) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(request)
	cmd.WaitDelay = killGrace

	if len(e.env) > 0 {
		cmd.Env = append(cmd.Environ(), e.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("script %q: %w: %s",
			e.command, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}
