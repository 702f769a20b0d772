// Package luacode evaluates algorithm source text into an isolated namespace
// of callables and invokes a chosen entry point.
//
// Submissions are Lua, executed by an embedded interpreter. Every Load builds
// a fresh interpreter state with the standard libraries opened, so repeated
// loads are idempotent and no global state leaks between versions. Loading is
// deliberately uncached: the sweep re-evaluates the full source for every
// (version, size) combination.
package luacode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/go-lua"
)

// ErrTimeout indicates an invocation exceeded its deadline. The interpreter
// cannot be preempted, so the namespace is poisoned and must be discarded.
var ErrTimeout = errors.New("luacode: invocation timed out")

// LoadError indicates the source text failed to parse or evaluate.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load algorithm source: %v", e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// ExecutionError indicates the algorithm code raised an error while running.
// The harness treats this as a per-test failure, not a framework failure.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("execute %s: %v", e.Name, e.Err) }

func (e *ExecutionError) Unwrap() error { return e.Err }

// Function describes one user-defined callable in a loaded namespace.
type Function struct {
	Name string
	// Arity is the declared parameter count, or -1 when the declaration
	// could not be located in the source text.
	Arity int
}

// Namespace holds one evaluated source text and its user-defined functions in
// definition order.
type Namespace struct {
	state    *lua.State
	poisoned bool

	// Functions lists the globals defined by the source, ordered by the
	// position of their declaration. Functions whose declaration site could
	// not be located sort after the located ones, by name, so the order is
	// deterministic for a fixed source.
	Functions []Function
}

// Load evaluates source into a fresh interpreter state and collects the
// functions it defined. Parse and evaluation failures return a *LoadError.
func Load(source string) (*Namespace, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	baseline := globalNames(state)

	if err := lua.LoadString(state, source); err != nil {
		return nil, &LoadError{Err: err}
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, &LoadError{Err: err}
	}

	defined := make(map[string]bool)
	pushGlobals(state)
	state.PushNil()
	for state.Next(-2) {
		if state.TypeOf(-1) == lua.TypeFunction && state.TypeOf(-2) == lua.TypeString {
			if name, ok := state.ToString(-2); ok && !baseline[name] {
				defined[name] = true
			}
		}
		state.Pop(1)
	}
	state.Pop(1)

	return &Namespace{
		state:     state,
		Functions: orderFunctions(defined, scanDeclarations(source)),
	}, nil
}

// Invoke calls fn with a fresh Lua array built from data and returns the
// call's first result converted to a Go value (nil for tables and other
// unconvertible types), plus the wall-clock duration of the call itself. The
// per-call table rebuild is what gives every iteration an independent copy of
// the input: in-place mutation by the algorithm never reaches data. That
// rebuild is preparation, not algorithm work, so the returned duration covers
// only the protected call.
//
// A context deadline is raced against the call; on expiry the interpreter
// goroutine is abandoned together with the whole namespace.
func (ns *Namespace) Invoke(ctx context.Context, fn Function, data []any) (any, time.Duration, error) {
	if ns == nil || ns.state == nil {
		return nil, 0, fmt.Errorf("namespace is not loaded")
	}
	if ns.poisoned {
		return nil, 0, fmt.Errorf("namespace abandoned after timeout")
	}

	state := ns.state
	state.Global(fn.Name)
	if state.TypeOf(-1) != lua.TypeFunction {
		state.Pop(1)
		return nil, 0, fmt.Errorf("global %q is not a function", fn.Name)
	}
	if err := pushValues(state, data); err != nil {
		state.Pop(2)
		return nil, 0, err
	}

	type callResult struct {
		elapsed time.Duration
		err     error
	}
	done := make(chan callResult, 1)
	go func() {
		start := time.Now()
		err := state.ProtectedCall(1, 1, 0)
		done <- callResult{elapsed: time.Since(start), err: err}
	}()

	select {
	case call := <-done:
		if call.err != nil {
			return nil, call.elapsed, &ExecutionError{Name: fn.Name, Err: call.err}
		}
		result := toGoValue(state, -1)
		state.Pop(1)
		return result, call.elapsed, nil
	case <-ctx.Done():
		ns.poisoned = true
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("invoke %s: %w", fn.Name, ErrTimeout)
		}
		return nil, 0, fmt.Errorf("invoke %s: %w", fn.Name, ctx.Err())
	}
}

func pushGlobals(state *lua.State) {
	state.RawGetInt(lua.RegistryIndex, lua.RegistryIndexGlobals)
}

// globalNames snapshots the names bound in the globals table.
func globalNames(state *lua.State) map[string]bool {
	names := make(map[string]bool)
	pushGlobals(state)
	state.PushNil()
	for state.Next(-2) {
		if state.TypeOf(-2) == lua.TypeString {
			if name, ok := state.ToString(-2); ok {
				names[name] = true
			}
		}
		state.Pop(1)
	}
	state.Pop(1)
	return names
}

func pushValues(state *lua.State, data []any) error {
	state.CreateTable(len(data), 0)
	for i, value := range data {
		switch v := value.(type) {
		case int64:
			state.PushInteger(int(v))
		case int:
			state.PushInteger(v)
		case float64:
			state.PushNumber(v)
		case string:
			state.PushString(v)
		default:
			return fmt.Errorf("unsupported workload element type %T", value)
		}
		state.RawSetInt(-2, i+1)
	}
	return nil
}

func toGoValue(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeNumber:
		if n, ok := state.ToNumber(index); ok {
			return n
		}
	case lua.TypeString:
		if s, ok := state.ToString(index); ok {
			return s
		}
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	}
	return nil
}
