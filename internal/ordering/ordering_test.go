package ordering

import (
	"reflect"
	"sort"
	"testing"
)

func TestNext(t *testing.T) {
	if got := Next(0); got != First {
		t.Errorf("Next(0) = %d, want %d", got, First)
	}
	if got := Next(7); got != 8 {
		t.Errorf("Next(7) = %d, want 8", got)
	}
	if got := Next(-3); got != First {
		t.Errorf("Next(-3) = %d, want %d", got, First)
	}
}

func TestNextPosition(t *testing.T) {
	if got := NextPosition(nil); got != First {
		t.Errorf("NextPosition(nil) = %d, want %d", got, First)
	}
	// Gaps from earlier deletes must not matter: append is still max+1.
	if got := NextPosition([]int{1, 4, 9}); got != 10 {
		t.Errorf("NextPosition with gaps = %d, want 10", got)
	}
}

func TestClampInsertIndex(t *testing.T) {
	cases := []struct {
		target, count, want int
	}{
		{0, 5, 1},
		{-2, 5, 1},
		{3, 5, 3},
		{6, 5, 6},  // append slot
		{99, 5, 6}, // past the end clamps to append
		{1, 0, 1},  // empty set
	}
	for _, c := range cases {
		if got := ClampInsertIndex(c.target, c.count); got != c.want {
			t.Errorf("ClampInsertIndex(%d, %d) = %d, want %d", c.target, c.count, got, c.want)
		}
	}
}

func TestClampMoveIndex(t *testing.T) {
	cases := []struct {
		target, count, want int
	}{
		{0, 3, 1},
		{2, 3, 2},
		{3, 3, 3},
		{4, 3, 3}, // moving the last element "after itself" clamps
		{9, 1, 1},
		{1, 0, 1},
	}
	for _, c := range cases {
		if got := ClampMoveIndex(c.target, c.count); got != c.want {
			t.Errorf("ClampMoveIndex(%d, %d) = %d, want %d", c.target, c.count, got, c.want)
		}
	}
}

func TestPlanSameListMoveNoOp(t *testing.T) {
	if plan := PlanSameListMove(3, 3); len(plan) != 0 {
		t.Fatalf("moving to own position must be a no-op, got plan %v", plan)
	}
}

// Scenario from the product: cards [X@1, Y@2, Z@3], move Y to position 1.
// Expected: X@2, Y@1, Z@3.
func TestPlanSameListMoveUp(t *testing.T) {
	plan := PlanSameListMove(2, 1)
	want := []Shift{{FromPos: 1, ToPos: 1, Delta: +1}}
	if !reflect.DeepEqual(plan, want) {
		t.Fatalf("plan = %v, want %v", plan, want)
	}

	positions := map[string]int{"X": 1, "Y": 2, "Z": 3}
	applyPlanExcept(positions, "Y", plan)
	positions["Y"] = 1

	expect := map[string]int{"X": 2, "Y": 1, "Z": 3}
	if !reflect.DeepEqual(positions, expect) {
		t.Errorf("positions = %v, want %v", positions, expect)
	}
	assertNoDuplicates(t, positions)
}

func TestPlanSameListMoveDown(t *testing.T) {
	// [A@1, B@2, C@3, D@4], move A to 3 -> B@1, C@2, A@3, D@4.
	plan := PlanSameListMove(1, 3)
	want := []Shift{{FromPos: 2, ToPos: 3, Delta: -1}}
	if !reflect.DeepEqual(plan, want) {
		t.Fatalf("plan = %v, want %v", plan, want)
	}

	positions := map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}
	applyPlanExcept(positions, "A", plan)
	positions["A"] = 3

	expect := map[string]int{"B": 1, "C": 2, "A": 3, "D": 4}
	if !reflect.DeepEqual(positions, expect) {
		t.Errorf("positions = %v, want %v", positions, expect)
	}
	assertNoDuplicates(t, positions)
}

func TestPlanCrossListMove(t *testing.T) {
	// Source [S1@1, M@2, S3@3], dest [D1@1, D2@2]; M moves to dest position 2.
	source, dest := PlanCrossListMove(2, 2)

	src := map[string]int{"S1": 1, "S3": 3}
	for id, p := range src {
		if source.Contains(p) {
			src[id] = p + source.Delta
		}
	}
	if src["S1"] != 1 || src["S3"] != 2 {
		t.Errorf("source after close = %v, want S1@1 S3@2", src)
	}

	dst := map[string]int{"D1": 1, "D2": 2}
	for id, p := range dst {
		if dest.Contains(p) {
			dst[id] = p + dest.Delta
		}
	}
	dst["M"] = 2
	expect := map[string]int{"D1": 1, "M": 2, "D2": 3}
	if !reflect.DeepEqual(dst, expect) {
		t.Errorf("dest after insert = %v, want %v", dst, expect)
	}
	assertNoDuplicates(t, dst)
}

func TestApplyUnbounded(t *testing.T) {
	positions := []int{1, 2, 3, 4}
	Apply(positions, Shift{FromPos: 3, ToPos: NoUpper, Delta: +1})
	want := []int{1, 2, 4, 5}
	if !reflect.DeepEqual(positions, want) {
		t.Errorf("positions = %v, want %v", positions, want)
	}
}

// Dense sequences stay dense across a long random-ish mix of moves.
func TestMoveSequenceKeepsPositionsUnique(t *testing.T) {
	positions := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
	moves := []struct {
		id     string
		target int
	}{
		{"e", 1}, {"a", 5}, {"c", 2}, {"b", 4}, {"d", 1}, {"d", 3}, {"a", 1},
	}
	for _, m := range moves {
		current := positions[m.id]
		target := ClampMoveIndex(m.target, len(positions))
		for _, s := range PlanSameListMove(current, target) {
			applyPlanExcept(positions, m.id, []Shift{s})
		}
		positions[m.id] = target
		assertNoDuplicates(t, positions)
	}
	assertDense(t, positions)
}

func applyPlanExcept(positions map[string]int, moved string, plan []Shift) {
	for id, p := range positions {
		if id == moved {
			continue
		}
		for _, s := range plan {
			if s.Contains(p) {
				p += s.Delta
			}
		}
		positions[id] = p
	}
}

func assertNoDuplicates(t *testing.T, positions map[string]int) {
	t.Helper()
	seen := make(map[int]string, len(positions))
	for id, p := range positions {
		if other, dup := seen[p]; dup {
			t.Fatalf("duplicate position %d held by %s and %s (%v)", p, id, other, positions)
		}
		seen[p] = id
	}
}

func assertDense(t *testing.T, positions map[string]int) {
	t.Helper()
	got := make([]int, 0, len(positions))
	for _, p := range positions {
		got = append(got, p)
	}
	sort.Ints(got)
	for i, p := range got {
		if p != i+1 {
			t.Fatalf("positions not dense: %v", got)
		}
	}
}
