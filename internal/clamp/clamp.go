// Package clamp provides a generic bound-to-range helper shared by the
// planner and mcu packages.
package clamp

import "golang.org/x/exp/constraints"

// Value constrains v to [lo, hi].
func Value[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
