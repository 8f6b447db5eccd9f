package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TaskRef identifies one task across the comparison set.
type TaskRef struct {
	ProjectID uuid.UUID `json:"project_id"`
	TaskID    int64     `json:"task_id"`
}

// ProjectGraph pairs a graph with the project that owns it, for the
// cross-project projections.
type ProjectGraph struct {
	ProjectID uuid.UUID
	Graph     *Graph
}

// DetectOverallocations flags every task whose resource set overlaps
// another task's booking of the same resource in time. Spans are
// half-open [start, exclusive end); an exact boundary touch (one span
// ending where the other starts) is not an overlap. The check is purely
// pairwise and ignores allocation percentages: a resource booked at 50%
// on two fully overlapping tasks is still flagged, because the flag
// signals a scheduling conflict, not exhausted capacity.
func DetectOverallocations(sets []ProjectGraph) []TaskRef {
	type booking struct {
		ref        TaskRef
		start, end time.Time
	}

	byResource := make(map[uuid.UUID][]booking)
	for _, pg := range sets {
		if pg.Graph == nil {
			continue
		}
		for _, t := range pg.Graph.tasks {
			if t.Kind == KindSummary || t.Start.IsZero() {
				continue
			}
			end, err := EndDateExclusive(t.Start, t.DurationDays)
			if err != nil {
				continue
			}
			b := booking{
				ref:   TaskRef{ProjectID: pg.ProjectID, TaskID: t.ID},
				start: t.Start,
				end:   end,
			}
			for _, rid := range t.ResourceIDs {
				byResource[rid] = append(byResource[rid], b)
			}
		}
	}

	flagged := make(map[TaskRef]struct{})
	for _, bookings := range byResource {
		for i := range bookings {
			for j := i + 1; j < len(bookings); j++ {
				a, b := bookings[i], bookings[j]
				if a.ref == b.ref {
					continue
				}
				if a.start.Before(b.end) && b.start.Before(a.end) {
					flagged[a.ref] = struct{}{}
					flagged[b.ref] = struct{}{}
				}
			}
		}
	}

	out := make([]TaskRef, 0, len(flagged))
	for ref := range flagged {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectID != out[j].ProjectID {
			return out[i].ProjectID.String() < out[j].ProjectID.String()
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}
