// Package harness drives algorithm source under controlled instrumentation
// to obtain repeatable performance numbers.
package harness

import (
	"context"
	"log"
	"runtime"
	"time"

	"algobench/internal/harness/luacode"
	"algobench/internal/harness/resolver"
)

const defaultIterations = 3

// Measurement is one metric-shaped observation for a (version, input size)
// pair. Persistence is the caller's responsibility.
type Measurement struct {
	InputSize       int64
	ExecutionTimeMS float64
	MemoryUsageKB   float64
	Platform        string
}

// Runner measures one entry point at a time. The zero value is usable:
// 3 iterations, no timeout, host platform tag.
type Runner struct {
	// Iterations is the number of timed invocations averaged into one
	// measurement.
	Iterations int
	// Timeout bounds each individual invocation. Zero means unbounded.
	Timeout time.Duration
	// Platform tags recorded measurements; defaults to runtime.GOOS.
	Platform string
	Logger   *log.Logger
}

// Run loads code once, resolves its entry point once, and times Iterations
// invocations against data under a single memory-instrumentation scope.
// Every iteration receives an independent copy of data, so in-place mutation
// by one iteration cannot leak into the next; building that copy happens
// before the timed window, so measured time covers only the algorithm call.
// Any load, resolve or invoke failure aborts this measurement with no
// partial result.
func (r *Runner) Run(ctx context.Context, code string, data []any, algorithmName string) (Measurement, error) {
	iterations := r.Iterations
	if iterations <= 0 {
		iterations = defaultIterations
	}
	platform := r.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	ns, err := luacode.Load(code)
	if err != nil {
		return Measurement{}, err
	}
	res, err := resolver.Resolve(ns.Functions, algorithmName)
	if err != nil {
		return Measurement{}, err
	}
	if res.Strategy.Ambiguous() {
		r.logf("entry point for %q resolved by %s fallback to %s", algorithmName, res.Strategy, res.Function.Name)
	}

	scope := startMemScope()
	var totalMS float64
	for i := 0; i < iterations; i++ {
		invokeCtx := ctx
		cancel := context.CancelFunc(func() {})
		if r.Timeout > 0 {
			invokeCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		}
		_, elapsed, invokeErr := ns.Invoke(invokeCtx, res.Function, data)
		cancel()
		if invokeErr != nil {
			scope.stop()
			return Measurement{}, invokeErr
		}
		totalMS += float64(elapsed) / float64(time.Millisecond)
		scope.sample()
	}
	peakKB := scope.stop()

	return Measurement{
		InputSize:       int64(len(data)),
		ExecutionTimeMS: totalMS / float64(iterations),
		MemoryUsageKB:   peakKB,
		Platform:        platform,
	}, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
