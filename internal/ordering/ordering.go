// Package ordering computes integer position keys for siblings of one parent
// (cards within a list, lists within a board). Positions are 1-based, unique
// within the parent, and ascending position equals visual order. Deletes leave
// gaps; moves renumber only the affected window.
package ordering

import "math"

// First is the position assigned to the first entity of an empty sibling set.
const First = 1

// NoUpper marks a shift window with no upper bound.
const NoUpper = math.MaxInt32

// Next returns the append position given the current maximum position of the
// sibling set. Callers pass 0 for an empty set.
func Next(max int) int {
	if max < First {
		return First
	}
	return max + 1
}

// NextPosition returns the append position for the given sibling positions.
func NextPosition(positions []int) int {
	max := 0
	for _, p := range positions {
		if p > max {
			max = p
		}
	}
	return Next(max)
}

// ClampInsertIndex clamps a requested insert position for a set that currently
// holds count siblings. Legal insert positions run from First to count+1
// (append).
func ClampInsertIndex(target, count int) int {
	if target < First {
		return First
	}
	if target > count+1 {
		return count + 1
	}
	return target
}

// ClampMoveIndex clamps a requested target position for moving an existing
// member of a set that holds count siblings. Moving the last element "after
// itself" clamps to the last legal index.
func ClampMoveIndex(target, count int) int {
	if count < 1 {
		return First
	}
	if target < First {
		return First
	}
	if target > count {
		return count
	}
	return target
}

// Shift describes a renumbering window: every sibling with position in
// [FromPos, ToPos] moves by Delta. ToPos == NoUpper means the window is
// unbounded above.
type Shift struct {
	FromPos int
	ToPos   int
	Delta   int
}

// Unbounded reports whether the shift has no upper bound.
func (s Shift) Unbounded() bool { return s.ToPos == NoUpper }

// Contains reports whether pos falls inside the shift window.
func (s Shift) Contains(pos int) bool {
	return pos >= s.FromPos && (s.Unbounded() || pos <= s.ToPos)
}

// PlanSameListMove returns the shifts required to move an entity from current
// to target within one sibling set. An empty plan means the move is a no-op
// and no sibling may be touched.
func PlanSameListMove(current, target int) []Shift {
	switch {
	case target == current:
		return nil
	case target > current:
		// Moving down: everything between the vacated slot and the target
		// slides up to fill the gap.
		return []Shift{{FromPos: current + 1, ToPos: target, Delta: -1}}
	default:
		// Moving up: everything from the target to just before the vacated
		// slot slides down to make room.
		return []Shift{{FromPos: target, ToPos: current - 1, Delta: +1}}
	}
}

// PlanCrossListMove returns the shift that closes the gap in the source set
// left by an entity at current, and the shift that opens a slot at target in
// the destination set.
func PlanCrossListMove(current, target int) (source, dest Shift) {
	source = Shift{FromPos: current + 1, ToPos: NoUpper, Delta: -1}
	dest = Shift{FromPos: target, ToPos: NoUpper, Delta: +1}
	return source, dest
}

// Apply renumbers the given positions in place according to the shift. It
// exists for in-memory callers and tests; the SQL store expresses the same
// window as a single UPDATE.
func Apply(positions []int, s Shift) {
	for i, p := range positions {
		if s.Contains(p) {
			positions[i] = p + s.Delta
		}
	}
}
