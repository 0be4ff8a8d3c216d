// Package toolchaintest provides a scripted toolchain.Runner for tests.
package toolchaintest

import (
	"context"
	"strings"
	"sync"
)

// Call records one command invocation.
type Call struct {
	Name  string
	Args  []string
	Stdin []byte
}

// String returns the command line of the call.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is what a scripted command returns.
type Response struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// Runner answers every command with Handler and records the calls. It is
// safe for concurrent use.
type Runner struct {
	Handler func(Call) Response

	mu    sync.Mutex
	calls []Call
}

// Run implements toolchain.Runner.
func (r *Runner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...), Stdin: stdin}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if r.Handler == nil {
		return nil, nil, nil
	}
	resp := r.Handler(call)
	return resp.Stdout, resp.Stderr, resp.Err
}

// Calls returns the recorded calls in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
