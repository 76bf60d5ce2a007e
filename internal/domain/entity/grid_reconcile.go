package entity

import (
	"cmp"
	"slices"
)

// SlotRef addresses one slot of the weekly grid
type SlotRef struct {
	Day  string
	Slot string
}

func compareSlotRefs(a, b SlotRef) int {
	if c := cmp.Compare(slices.Index(weekdayNames, a.Day), slices.Index(weekdayNames, b.Day)); c != 0 {
		return c
	}
	return cmp.Compare(a.Slot, b.Slot)
}

// ReconcileResult reports what Reconcile changed
type ReconcileResult struct {
	Occupied int
	Freed    int
	// Overbooked slots have more scheduled appointments than capacity
	Overbooked []SlotRef
	// Orphaned slots have scheduled appointments but are missing from the grid
	Orphaned []SlotRef
}

// Changed reports whether any marker was flipped
func (r ReconcileResult) Changed() bool {
	return r.Occupied > 0 || r.Freed > 0
}

// Reconcile makes the occupied count of every slot equal to min(scheduled, capacity),
// flipping as few markers as possible in first-match order.
func (g AvailabilityGrid) Reconcile(scheduled map[SlotRef]int) ReconcileResult {
	var result ReconcileResult

	for day, slots := range g {
		for label, seq := range slots {
			want := scheduled[SlotRef{Day: day, Slot: label}]
			if want > seq.Capacity() {
				result.Overbooked = append(result.Overbooked, SlotRef{Day: day, Slot: label})
				want = seq.Capacity()
			}
			for seq.Occupied() < want && seq.flipFirst(SlotFree, SlotOccupied) {
				result.Occupied++
			}
			for seq.Occupied() > want && seq.flipFirst(SlotOccupied, SlotFree) {
				result.Freed++
			}
		}
	}

	for ref, n := range scheduled {
		if n <= 0 {
			continue
		}
		if _, err := g.Sequence(ref.Day, ref.Slot); err != nil {
			result.Orphaned = append(result.Orphaned, ref)
		}
	}

	slices.SortFunc(result.Overbooked, compareSlotRefs)
	slices.SortFunc(result.Orphaned, compareSlotRefs)
	return result
}
