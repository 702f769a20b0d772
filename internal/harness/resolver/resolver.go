// Package resolver picks the entry point of a loaded algorithm namespace.
//
// Resolution is a ranked-strategy heuristic, not a correctness guarantee: a
// source file that defines an unrelated single-argument helper before the
// real entry point can be mis-resolved. That ambiguity is inherent to the
// approach; the Resolution's Strategy field keeps it observable instead of
// hiding it.
package resolver

import (
	"errors"
	"regexp"

	"algobench/internal/harness/luacode"
)

// ErrNoCallableFound indicates the namespace defines no functions at all.
var ErrNoCallableFound = errors.New("resolver: no functions found in algorithm code")

// Strategy identifies which rule selected the entry point.
type Strategy string

const (
	// StrategyNamePattern matched a name pattern for the algorithm family.
	StrategyNamePattern Strategy = "name_pattern"
	// StrategySingleParam fell back to the first function declared with
	// exactly one parameter.
	StrategySingleParam Strategy = "single_param"
	// StrategyFirstDefined fell back to the first function in definition
	// order.
	StrategyFirstDefined Strategy = "first_defined"
)

// Ambiguous reports whether the strategy is a fallback, worth surfacing in
// logs.
func (s Strategy) Ambiguous() bool { return s != StrategyNamePattern }

// Resolution is the selected entry point plus the strategy that chose it.
type Resolution struct {
	Function luacode.Function
	Strategy Strategy
	Pattern  string
}

// namePatterns maps known algorithm names to prioritized, start-anchored,
// case-insensitive patterns: the primary name first, then a family fallback.
var namePatterns = map[string][]string{
	"Bubble Sort":   {`bubble_sort`, `.*sort`},
	"Quick Sort":    {`quick_sort`, `.*sort`},
	"Merge Sort":    {`merge_sort`, `.*sort`},
	"Binary Search": {`binary_search`, `.*search`},
}

// defaultPatterns covers algorithms the table does not know about.
var defaultPatterns = []string{`.*sort`, `.*search`, `.*find`}

// Resolve selects exactly one function from fns for the named algorithm.
// Patterns are scanned in priority order and, within a pattern, functions in
// definition order; ties therefore resolve deterministically for a fixed
// namespace and name.
func Resolve(fns []luacode.Function, algorithmName string) (Resolution, error) {
	if len(fns) == 0 {
		return Resolution{}, ErrNoCallableFound
	}

	patterns, ok := namePatterns[algorithmName]
	if !ok {
		patterns = defaultPatterns
	}

	for _, pattern := range patterns {
		re := regexp.MustCompile(`(?i)^` + pattern)
		for _, fn := range fns {
			if re.MatchString(fn.Name) {
				return Resolution{Function: fn, Strategy: StrategyNamePattern, Pattern: pattern}, nil
			}
		}
	}

	for _, fn := range fns {
		if fn.Arity == 1 {
			return Resolution{Function: fn, Strategy: StrategySingleParam}, nil
		}
	}

	return Resolution{Function: fns[0], Strategy: StrategyFirstDefined}, nil
}
