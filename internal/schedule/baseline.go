package schedule

import "fmt"

// MaxBaselineSlot is the highest numbered baseline slot.
const MaxBaselineSlot = 10

// SetBaseline snapshots every task's current (start, exclusive end) into
// slot n. Slot n is overwritten; other slots are untouched. Summary tasks
// are excluded since their dates are derived, and the component does no
// variance math: baselines are pure data for planned-vs-actual display.
func SetBaseline(g *Graph, n int) error {
	if n < 0 || n > MaxBaselineSlot {
		return fmt.Errorf("%w: %d", ErrBaselineSlot, n)
	}

	for _, t := range g.tasks {
		if t.Kind == KindSummary || t.Start.IsZero() {
			continue
		}
		end, err := EndDateExclusive(t.Start, t.DurationDays)
		if err != nil {
			continue
		}
		if t.Baselines == nil {
			t.Baselines = make(map[int]BaselineSpan)
		}
		t.Baselines[n] = BaselineSpan{Start: t.Start, End: end}
	}
	return nil
}
