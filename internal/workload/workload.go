// Package workload produces synthetic input collections for benchmark runs.
//
// Generation is pure modulo the random source: there is no seeding contract,
// so callers must not depend on exact values, only on size, element kind and
// ordering shape.
package workload

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Kind selects the element type of a generated workload.
type Kind string

const (
	Integer Kind = "integer"
	Float   Kind = "float"
	Text    Kind = "text"
)

// Ordering selects the arrangement of a generated workload.
type Ordering string

const (
	Random Ordering = "random"
	Sorted Ordering = "sorted"
	// NearlySorted sorts ascending and then perturbs 10% of positions with
	// random pairwise swaps, modeling almost-sorted real-world input.
	NearlySorted Ordering = "nearly_sorted"
)

// ParseKind converts a string flag value into a Kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case Integer:
		return Integer, nil
	case Float:
		return Float, nil
	case Text:
		return Text, nil
	}
	return "", fmt.Errorf("unsupported workload kind %q", value)
}

// ParseOrdering converts a string flag value into an Ordering.
func ParseOrdering(value string) (Ordering, error) {
	switch Ordering(strings.ToLower(strings.TrimSpace(value))) {
	case Random:
		return Random, nil
	case Sorted:
		return Sorted, nil
	case NearlySorted:
		return NearlySorted, nil
	}
	return "", fmt.Errorf("unsupported workload ordering %q", value)
}

// Generate returns a slice of length size. Integer values are uniform over
// [0, size*10], float values uniform over [0, size), text values are short
// repeated-character tokens. Elements are int64, float64 or string depending
// on kind.
func Generate(size int, kind Kind, ordering Ordering) ([]any, error) {
	if size < 1 {
		return nil, fmt.Errorf("workload size must be positive, got %d", size)
	}

	data := make([]any, size)
	switch kind {
	case Integer:
		for i := range data {
			data[i] = int64(rand.Intn(size*10 + 1))
		}
	case Float:
		for i := range data {
			data[i] = rand.Float64() * float64(size)
		}
	case Text:
		for i := range data {
			letter := string(rune('a' + rand.Intn(26)))
			data[i] = strings.Repeat(letter, 1+rand.Intn(5))
		}
	default:
		return nil, fmt.Errorf("unsupported workload kind %q", kind)
	}

	switch ordering {
	case Random:
	case Sorted:
		sortValues(data)
	case NearlySorted:
		sortValues(data)
		perturb(data)
	default:
		return nil, fmt.Errorf("unsupported workload ordering %q", ordering)
	}
	return data, nil
}

// Less compares two workload values. Values of mismatched kinds compare
// false rather than panicking; generated workloads are homogeneous, so a
// mismatch only happens on caller-built slices.
func Less(a, b any) bool {
	switch left := a.(type) {
	case int64:
		right, ok := b.(int64)
		return ok && left < right
	case float64:
		right, ok := b.(float64)
		return ok && left < right
	case string:
		right, ok := b.(string)
		return ok && left < right
	}
	return false
}

func sortValues(data []any) {
	sort.SliceStable(data, func(i, j int) bool { return Less(data[i], data[j]) })
}

// perturb applies floor(len/10) random pairwise swaps.
func perturb(data []any) {
	size := len(data)
	if size < 2 {
		return
	}
	swaps := size / 10
	for n := 0; n < swaps; n++ {
		i := rand.Intn(size)
		j := rand.Intn(size)
		for j == i {
			j = rand.Intn(size)
		}
		data[i], data[j] = data[j], data[i]
	}
}
