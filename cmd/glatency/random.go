package main

import (
	"math/rand"
)

// uniqueRandomInts returns count distinct integers from [start, end). count
// is capped at the size of the range.
func uniqueRandomInts(r *rand.Rand, start, end, count int) []int {
	if end <= start || count <= 0 {
		return nil
	}
	count = min(count, end-start)

	seen := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for len(out) < count {
		n := r.Intn(end-start) + start
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
