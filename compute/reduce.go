// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

// GroupCount returns the number of worker groups needed to cover n
// elements with groups of groupSize: ceil(n / groupSize).
func GroupCount(n, groupSize int) int {
	if n <= 0 || groupSize <= 0 {
		return 0
	}
	return (n + groupSize - 1) / groupSize
}

// ReductionPasses returns the lengths written by successive max-reduction
// passes over n elements: ceil(n/g), ceil(ceil(n/g)/g), ... ending in 1.
// It returns nil when n <= 1 (nothing to reduce) or groupSize < 2.
func ReductionPasses(n, groupSize int) []int {
	if n <= 1 || groupSize < 2 {
		return nil
	}
	var passes []int
	for n > 1 {
		n = GroupCount(n, groupSize)
		passes = append(passes, n)
	}
	return passes
}
