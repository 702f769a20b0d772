// Package seed populates an empty lineage store with the starter catalog:
// four classic algorithms, their Lua sources, and the improvement, feedback
// and category annotations that exercise the whole data model.
package seed

import (
	"context"
	"fmt"

	"algobench/internal/lineage"
)

const bubbleSortV1 = `function bubble_sort(arr)
    local n = #arr
    for i = 1, n do
        for j = 1, n - i do
            if arr[j] > arr[j + 1] then
                arr[j], arr[j + 1] = arr[j + 1], arr[j]
            end
        end
    end
    return arr
end
`

const bubbleSortV2 = `function optimized_bubble_sort(arr)
    local n = #arr
    local swapped = true
    while swapped do
        swapped = false
        for i = 1, n - 1 do
            if arr[i] > arr[i + 1] then
                arr[i], arr[i + 1] = arr[i + 1], arr[i]
                swapped = true
            end
        end
    end
    return arr
end
`

const quickSortV1 = `function quick_sort(arr)
    if #arr <= 1 then
        return arr
    end
    local pivot = arr[math.floor(#arr / 2) + 1]
    local left, middle, right = {}, {}, {}
    for _, x in ipairs(arr) do
        if x < pivot then
            left[#left + 1] = x
        elseif x == pivot then
            middle[#middle + 1] = x
        else
            right[#right + 1] = x
        end
    end
    local result = quick_sort(left)
    for _, x in ipairs(middle) do
        result[#result + 1] = x
    end
    for _, x in ipairs(quick_sort(right)) do
        result[#result + 1] = x
    end
    return result
end
`

// merge stays a global defined after the entry point, mirroring the upstream
// sample that motivates the resolver's ambiguity handling.
const mergeSortV1 = `function merge_sort(arr)
    if #arr <= 1 then
        return arr
    end
    local mid = math.floor(#arr / 2)
    local left, right = {}, {}
    for i = 1, mid do
        left[i] = arr[i]
    end
    for i = mid + 1, #arr do
        right[i - mid] = arr[i]
    end
    return merge(merge_sort(left), merge_sort(right))
end

function merge(left, right)
    local result = {}
    local i, j = 1, 1
    while i <= #left and j <= #right do
        if left[i] <= right[j] then
            result[#result + 1] = left[i]
            i = i + 1
        else
            result[#result + 1] = right[j]
            j = j + 1
        end
    end
    while i <= #left do
        result[#result + 1] = left[i]
        i = i + 1
    end
    while j <= #right do
        result[#result + 1] = right[j]
        j = j + 1
    end
    return result
end
`

const binarySearchV1 = `function binary_search(arr)
    local sorted = {}
    for i, v in ipairs(arr) do
        sorted[i] = v
    end
    table.sort(sorted)
    if #sorted == 0 then
        return -1
    end
    local target = sorted[math.floor(#sorted / 2) + 1]
    local low, high = 1, #sorted
    while low <= high do
        local mid = math.floor((low + high) / 2)
        if sorted[mid] == target then
            return mid
        elseif sorted[mid] < target then
            low = mid + 1
        else
            high = mid - 1
        end
    end
    return -1
end
`

// Algorithm is one seed catalog entry.
type Algorithm struct {
	Name        string
	Description string
	Versions    []string
	Categories  []string
}

// Fixtures returns the starter catalog in registration order.
func Fixtures() []Algorithm {
	return []Algorithm{
		{
			Name:        "Bubble Sort",
			Description: "A simple sorting algorithm",
			Versions:    []string{bubbleSortV1, bubbleSortV2},
			Categories:  []string{"Sorting"},
		},
		{
			Name:        "Quick Sort",
			Description: "A divide-and-conquer sorting algorithm with O(n log n) average time complexity",
			Versions:    []string{quickSortV1},
			Categories:  []string{"Sorting"},
		},
		{
			Name:        "Merge Sort",
			Description: "A stable, divide-and-conquer sorting algorithm with guaranteed O(n log n) time complexity",
			Versions:    []string{mergeSortV1},
			Categories:  []string{"Sorting"},
		},
		{
			Name:        "Binary Search",
			Description: "An efficient search algorithm for finding elements in a sorted array",
			Versions:    []string{binarySearchV1},
			Categories:  []string{"Searching"},
		},
	}
}

// Categories returns the seed tag vocabulary.
func Categories() map[string]string {
	return map[string]string{
		"Sorting":             "Algorithms for arranging elements in a specific order",
		"Searching":           "Algorithms for finding elements in data structures",
		"Graph":               "Algorithms for operating on graph data structures",
		"Dynamic Programming": "Algorithms that solve complex problems by breaking them into simpler subproblems",
	}
}

// Apply populates the store, skipping entirely when any algorithm already
// exists. It returns whether seeding happened.
func Apply(ctx context.Context, store lineage.Store) (bool, error) {
	existing, err := store.ListAlgorithms(ctx)
	if err != nil {
		return false, fmt.Errorf("check existing algorithms: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	categoryIDs := make(map[string]int64)
	for _, name := range []string{"Sorting", "Searching", "Graph", "Dynamic Programming"} {
		id, err := store.AddCategory(ctx, name, Categories()[name])
		if err != nil {
			return false, fmt.Errorf("seed category %q: %w", name, err)
		}
		categoryIDs[name] = id
	}

	versionIDs := make(map[string][]int64)
	for _, algo := range Fixtures() {
		algoID, err := store.CreateAlgorithm(ctx, algo.Name, algo.Description)
		if err != nil {
			return false, fmt.Errorf("seed algorithm %q: %w", algo.Name, err)
		}
		for _, code := range algo.Versions {
			versionID, err := store.AddVersion(ctx, algoID, code)
			if err != nil {
				return false, fmt.Errorf("seed version of %q: %w", algo.Name, err)
			}
			versionIDs[algo.Name] = append(versionIDs[algo.Name], versionID)
		}
		for _, category := range algo.Categories {
			if err := store.MapCategory(ctx, algoID, categoryIDs[category]); err != nil {
				return false, fmt.Errorf("seed category mapping for %q: %w", algo.Name, err)
			}
		}
		if algo.Name == "Bubble Sort" {
			ids := versionIDs[algo.Name]
			if _, err := store.AddImprovement(ctx, lineage.Improvement{
				AlgorithmID:  algoID,
				OldVersionID: ids[0],
				NewVersionID: ids[1],
				Note:         "Added a swapped flag to optimize iterations.",
			}); err != nil {
				return false, fmt.Errorf("seed improvement for %q: %w", algo.Name, err)
			}
			if _, err := store.AddFeedback(ctx, lineage.Feedback{
				AlgorithmID: algoID,
				VersionID:   ids[1],
				Text:        "The optimized version avoids unnecessary iterations, improving efficiency.",
				Rating:      5,
			}); err != nil {
				return false, fmt.Errorf("seed feedback for %q: %w", algo.Name, err)
			}
		}
	}
	return true, nil
}
