package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// GroupHeaderIDBase is the start of the reserved id range for synthetic
// rows in the grouped view. Real task ids never reach this range; the
// contract lets consumers tell synthetic rows from real ones by id alone.
const GroupHeaderIDBase int64 = 999900

// UnassignedGroupName labels the fallback lane for tasks with no resource.
const UnassignedGroupName = "Unassigned"

// GroupedRow is one row of the resource-grouped view: either a synthetic
// group header (one lane per resource) or a copy of a real task placed
// under that lane. Copies keep enough provenance (SourceTaskID,
// SourceParentID) to restore the original layout; headers carry no dates
// and are read-only and always expanded.
type GroupedRow struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind,omitempty"`
	ParentID int64  `json:"parent_id"`

	Header   bool `json:"header"`
	ReadOnly bool `json:"read_only"`
	Expanded bool `json:"expanded,omitempty"`

	ResourceID *uuid.UUID `json:"resource_id,omitempty"`

	Start        time.Time `json:"start_date,omitzero"`
	End          time.Time `json:"end_date,omitzero"`
	DurationDays int       `json:"duration_days,omitempty"`
	Progress     float64   `json:"progress,omitempty"`

	SourceTaskID   int64 `json:"source_task_id,omitempty"`
	SourceParentID int64 `json:"source_parent_id,omitempty"`
}

// GroupedView is the read-only per-resource projection of a graph.
// Dependency links are dropped: predecessor arrows are meaningless once a
// task appears once per assigned resource. Restoring the ungrouped view
// means going back to the untransformed graph, which keeps the original
// link set; the view never regenerates links.
type GroupedView struct {
	Rows []*GroupedRow `json:"rows"`
}

// GroupByResource builds the grouped view without mutating the source
// graph. A task with N assigned resources appears N times, once per
// resource lane; tasks with no resource fall into a single "Unassigned"
// lane. Lanes are ordered by resource display name (case-sensitive);
// within a lane copies are ordered by original task id.
func GroupByResource(g *Graph) *GroupedView {
	type lane struct {
		name  string
		rid   *uuid.UUID
		tasks []*Task
	}

	// Lanes are keyed by resource id: two resources sharing a display
	// name still get one lane each.
	lanes := make(map[uuid.UUID]*lane)
	var unassigned []*Task

	for _, t := range g.tasks {
		if len(t.ResourceIDs) == 0 {
			unassigned = append(unassigned, t)
			continue
		}
		for i, rid := range t.ResourceIDs {
			name := ""
			if i < len(t.ResourceNames) {
				name = t.ResourceNames[i]
			}
			l, ok := lanes[rid]
			if !ok {
				id := rid
				l = &lane{name: name, rid: &id}
				lanes[rid] = l
			} else if l.name == "" {
				l.name = name
			}
			l.tasks = append(l.tasks, t)
		}
	}

	ordered := make([]*lane, 0, len(lanes)+1)
	for _, l := range lanes {
		ordered = append(ordered, l)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].name != ordered[j].name {
			return ordered[i].name < ordered[j].name
		}
		return ordered[i].rid.String() < ordered[j].rid.String()
	})
	if len(unassigned) > 0 {
		ordered = append(ordered, &lane{name: UnassignedGroupName, tasks: unassigned})
	}

	view := &GroupedView{}
	nextID := GroupHeaderIDBase
	for _, l := range ordered {
		header := &GroupedRow{
			ID:         nextID,
			Name:       l.name,
			Header:     true,
			ReadOnly:   true,
			Expanded:   true,
			ResourceID: l.rid,
		}
		nextID++
		view.Rows = append(view.Rows, header)

		copies := append([]*Task(nil), l.tasks...)
		sort.Slice(copies, func(i, j int) bool { return copies[i].ID < copies[j].ID })
		for _, t := range copies {
			view.Rows = append(view.Rows, &GroupedRow{
				ID:             nextID,
				Name:           t.Name,
				Kind:           t.Kind,
				ParentID:       header.ID,
				ReadOnly:       true,
				Start:          t.Start,
				End:            t.End,
				DurationDays:   t.DurationDays,
				Progress:       t.Progress,
				SourceTaskID:   t.ID,
				SourceParentID: t.ParentID,
			})
			nextID++
		}
	}
	return view
}
