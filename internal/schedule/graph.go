package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Graph is the authoritative in-memory schedule for one project: an
// ordered collection of tasks plus their dependency links. Every mutation
// validates first and fails without touching state, then recomputes all
// derived fields (cached end dates, work hours, summary roll-ups) before
// returning, so a reader can never observe a stale derivation.
//
// Graph is not safe for concurrent mutation; the caller serializes writes
// per project. Concurrent reads are safe while no mutation is in flight.
type Graph struct {
	tasks []*Task
	byID  map[int64]*Task
	links []*Link
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{byID: make(map[int64]*Task)}
}

// Task looks up a task by id.
func (g *Graph) Task(id int64) (*Task, bool) {
	t, ok := g.byID[id]
	return t, ok
}

// Tasks returns the tasks in insertion order. The returned slice is a
// copy; the pointed-to tasks are live and must not be mutated by callers.
func (g *Graph) Tasks() []*Task {
	return append([]*Task(nil), g.tasks...)
}

// Links returns the dependency links. Same sharing rules as Tasks.
func (g *Graph) Links() []*Link {
	return append([]*Link(nil), g.links...)
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// MaxTaskID returns the highest task id in the graph, 0 when empty.
func (g *Graph) MaxTaskID() int64 {
	var max int64
	for _, t := range g.tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

// MaxLinkID returns the highest link id in the graph, 0 when empty.
func (g *Graph) MaxLinkID() int64 {
	var max int64
	for _, l := range g.links {
		if l.ID > max {
			max = l.ID
		}
	}
	return max
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	c.tasks = make([]*Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		tc := t.Clone()
		c.tasks = append(c.tasks, tc)
		c.byID[tc.ID] = tc
	}
	c.links = make([]*Link, 0, len(g.links))
	for _, l := range g.links {
		lc := *l
		c.links = append(c.links, &lc)
	}
	return c
}

// UpsertTask validates and stores a task, replacing any task with the
// same id in place. The stored copy is returned with all derived fields
// recomputed. The input is not retained.
func (g *Graph) UpsertTask(t *Task) (*Task, error) {
	if t == nil || t.ID <= 0 {
		return nil, fmt.Errorf("%w: task id must be positive", ErrMalformedInput)
	}

	kind := t.Kind
	if kind == "" {
		kind = KindTask
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
	}
	if kind != KindSummary && t.Start.IsZero() {
		return nil, fmt.Errorf("%w: task %d has no start date", ErrInvalidDate, t.ID)
	}
	if t.DurationDays < 0 {
		return nil, fmt.Errorf("%w: task %d", ErrInvalidDuration, t.ID)
	}
	if t.Progress < 0 || t.Progress > 1 {
		return nil, fmt.Errorf("%w: progress %v out of [0,1]", ErrMalformedInput, t.Progress)
	}
	if err := g.validateParent(t.ID, t.ParentID); err != nil {
		return nil, err
	}
	if err := validateResources(t.ResourceIDs, t.ResourceNames, t.Allocations); err != nil {
		return nil, err
	}

	stored := t.Clone()
	stored.Kind = kind
	if !stored.Start.IsZero() {
		stored.Start = Midnight(stored.Start)
	}

	if prev, ok := g.byID[stored.ID]; ok {
		for i, existing := range g.tasks {
			if existing == prev {
				g.tasks[i] = stored
				break
			}
		}
	} else {
		g.tasks = append(g.tasks, stored)
	}
	g.byID[stored.ID] = stored

	g.refreshDerived()
	return stored, nil
}

// DeleteTask removes a task, its descendants, and every link touching a
// removed task. A dangling link or parent reference is never retained.
func (g *Graph) DeleteTask(id int64) error {
	if _, ok := g.byID[id]; !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}

	doomed := map[int64]struct{}{id: {}}
	g.collectDescendants(id, doomed)

	kept := g.tasks[:0]
	for _, t := range g.tasks {
		if _, gone := doomed[t.ID]; gone {
			delete(g.byID, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	g.tasks = kept

	keptLinks := g.links[:0]
	for _, l := range g.links {
		_, srcGone := doomed[l.Source]
		_, dstGone := doomed[l.Target]
		if srcGone || dstGone {
			continue
		}
		keptLinks = append(keptLinks, l)
	}
	g.links = keptLinks

	g.refreshDerived()
	return nil
}

// SetDependencies replaces every link targeting taskID with one
// finish-to-start link per predecessor, in the given order. Unknown
// predecessor ids are rejected before anything changes.
func (g *Graph) SetDependencies(taskID int64, predecessorIDs []int64) error {
	if _, ok := g.byID[taskID]; !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	seen := make(map[int64]struct{}, len(predecessorIDs))
	ordered := make([]int64, 0, len(predecessorIDs))
	for _, pid := range predecessorIDs {
		if _, ok := g.byID[pid]; !ok || pid == taskID {
			return fmt.Errorf("%w: predecessor %d", ErrDanglingLink, pid)
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		ordered = append(ordered, pid)
	}

	kept := g.links[:0]
	for _, l := range g.links {
		if l.Target != taskID {
			kept = append(kept, l)
		}
	}
	g.links = kept

	nextID := g.MaxLinkID() + 1
	for _, pid := range ordered {
		g.links = append(g.links, &Link{
			ID:     nextID,
			Source: pid,
			Target: taskID,
			Type:   LinkTypeFinishToStart,
		})
		nextID++
	}
	return nil
}

// AssignResources replaces a task's resource set. ids and names are
// parallel arrays; allocations keys must be a subset of ids. Resources
// without an explicit allocation count as 100.
func (g *Graph) AssignResources(taskID int64, ids []uuid.UUID, names []string, allocations map[uuid.UUID]float64) (*Task, error) {
	t, ok := g.byID[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	if len(ids) != len(names) {
		return nil, fmt.Errorf("%w: %d ids, %d names", ErrResourceMismatch, len(ids), len(names))
	}
	if err := validateResources(ids, names, allocations); err != nil {
		return nil, err
	}

	t.ResourceIDs = append([]uuid.UUID(nil), ids...)
	t.ResourceNames = append([]string(nil), names...)
	if allocations == nil {
		t.Allocations = nil
	} else {
		t.Allocations = make(map[uuid.UUID]float64, len(allocations))
		for k, v := range allocations {
			t.Allocations[k] = v
		}
	}

	g.refreshDerived()
	return t, nil
}

// Children returns the direct children of taskID in insertion order.
// taskID 0 selects the root level.
func (g *Graph) Children(taskID int64) []*Task {
	var out []*Task
	for _, t := range g.tasks {
		if t.ParentID == taskID {
			out = append(out, t)
		}
	}
	return out
}

// Ancestors returns the chain of parents from the task's direct parent up
// to a root-level task.
func (g *Graph) Ancestors(taskID int64) ([]*Task, error) {
	t, ok := g.byID[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	var out []*Task
	seen := map[int64]struct{}{t.ID: {}}
	for t.ParentID != 0 {
		// A revisit means a corrupted parent chain; stop rather than spin.
		if _, dup := seen[t.ParentID]; dup {
			break
		}
		seen[t.ParentID] = struct{}{}
		p, ok := g.byID[t.ParentID]
		if !ok {
			break
		}
		out = append(out, p)
		t = p
	}
	return out, nil
}

// IsDescendant reports whether task a sits strictly below task b in the
// parent hierarchy.
func (g *Graph) IsDescendant(a, b int64) bool {
	t, ok := g.byID[a]
	if !ok {
		return false
	}
	seen := map[int64]struct{}{t.ID: {}}
	for t.ParentID != 0 {
		if t.ParentID == b {
			return true
		}
		if _, dup := seen[t.ParentID]; dup {
			return false
		}
		seen[t.ParentID] = struct{}{}
		p, ok := g.byID[t.ParentID]
		if !ok {
			return false
		}
		t = p
	}
	return false
}

// OutlineCode returns the hierarchical outline number for a task, e.g.
// "1.2.3": the 1-based position among siblings at each ancestry level.
func (g *Graph) OutlineCode(taskID int64) (string, error) {
	t, ok := g.byID[taskID]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}

	var parts []string
	seen := make(map[int64]struct{})
	for {
		if _, dup := seen[t.ID]; dup {
			break
		}
		seen[t.ID] = struct{}{}
		pos := 0
		for _, sibling := range g.tasks {
			if sibling.ParentID == t.ParentID {
				pos++
				if sibling == t {
					break
				}
			}
		}
		parts = append(parts, strconv.Itoa(pos))
		if t.ParentID == 0 {
			break
		}
		p, ok := g.byID[t.ParentID]
		if !ok {
			break
		}
		t = p
	}

	// Built leaf-first; reverse to read root-first.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), nil
}

// appendBatch validates and appends a set of tasks and links as one unit:
// no id may collide with the existing graph, parents must resolve within
// the union of old and new tasks, and link endpoints likewise. Used by
// document loading and import merging; on error nothing is appended.
func (g *Graph) appendBatch(tasks []*Task, links []*Link) error {
	incoming := make(map[int64]*Task, len(tasks))
	for _, t := range tasks {
		if t == nil || t.ID <= 0 {
			return fmt.Errorf("%w: task id must be positive", ErrMalformedInput)
		}
		if _, exists := g.byID[t.ID]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicateTaskID, t.ID)
		}
		if _, dup := incoming[t.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateTaskID, t.ID)
		}
		incoming[t.ID] = t
	}

	resolves := func(id int64) bool {
		if _, ok := g.byID[id]; ok {
			return true
		}
		_, ok := incoming[id]
		return ok
	}

	// Parent lookup across the union of old and new tasks.
	parentOf := func(id int64) int64 {
		if t, ok := incoming[id]; ok {
			return t.ParentID
		}
		if t, ok := g.byID[id]; ok {
			return t.ParentID
		}
		return 0
	}

	for _, t := range tasks {
		kind := t.Kind
		if kind == "" {
			kind = KindTask
		}
		if !kind.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
		}
		if t.DurationDays < 0 {
			return fmt.Errorf("%w: task %d", ErrInvalidDuration, t.ID)
		}
		if t.Progress < 0 || t.Progress > 1 {
			return fmt.Errorf("%w: task %d progress %v out of [0,1]", ErrMalformedInput, t.ID, t.Progress)
		}
		if kind != KindSummary && t.Start.IsZero() {
			return fmt.Errorf("%w: task %d has no start date", ErrInvalidDate, t.ID)
		}
		if t.ParentID != 0 && !resolves(t.ParentID) {
			return fmt.Errorf("%w: task %d parent %d", ErrDanglingParent, t.ID, t.ParentID)
		}
		if err := validateResources(t.ResourceIDs, t.ResourceNames, t.Allocations); err != nil {
			return fmt.Errorf("task %d: %w", t.ID, err)
		}

		// Walk the parent chain; revisiting a task means a cycle.
		seen := make(map[int64]struct{})
		for id := t.ID; id != 0; id = parentOf(id) {
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: task %d", ErrParentCycle, t.ID)
			}
			seen[id] = struct{}{}
		}
	}
	for _, l := range links {
		if !resolves(l.Source) || !resolves(l.Target) {
			return fmt.Errorf("%w: link %d", ErrDanglingLink, l.ID)
		}
	}

	for _, t := range tasks {
		stored := t.Clone()
		if stored.Kind == "" {
			stored.Kind = KindTask
		}
		if !stored.Start.IsZero() {
			stored.Start = Midnight(stored.Start)
		}
		g.tasks = append(g.tasks, stored)
		g.byID[stored.ID] = stored
	}
	for _, l := range links {
		lc := *l
		g.links = append(g.links, &lc)
	}

	g.refreshDerived()
	return nil
}

func (g *Graph) validateParent(taskID, parentID int64) error {
	if parentID == 0 {
		return nil
	}
	if parentID == taskID {
		return fmt.Errorf("%w: task %d is its own parent", ErrParentCycle, taskID)
	}
	if _, ok := g.byID[parentID]; !ok {
		return fmt.Errorf("%w: %d", ErrDanglingParent, parentID)
	}
	if g.IsDescendant(parentID, taskID) {
		return fmt.Errorf("%w: task %d under %d", ErrParentCycle, parentID, taskID)
	}
	return nil
}

// validateResources enforces the parallel-array shape. Names may exceed
// ids: an import can retain a resource name whose directory match failed,
// but an id without a name never occurs.
func validateResources(ids []uuid.UUID, names []string, allocations map[uuid.UUID]float64) error {
	if len(ids) > len(names) {
		return fmt.Errorf("%w: %d ids, %d names", ErrResourceMismatch, len(ids), len(names))
	}
	for rid, pct := range allocations {
		if pct < 0 {
			return fmt.Errorf("%w: negative allocation for %s", ErrInvalidAlloc, rid)
		}
		found := false
		for _, id := range ids {
			if id == rid {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrInvalidAlloc, rid)
		}
	}
	return nil
}

func (g *Graph) collectDescendants(id int64, into map[int64]struct{}) {
	for _, t := range g.tasks {
		if t.ParentID != id {
			continue
		}
		if _, seen := into[t.ID]; seen {
			continue
		}
		into[t.ID] = struct{}{}
		g.collectDescendants(t.ID, into)
	}
}

// refreshDerived recomputes every derived field in the graph: milestone
// constraints, work hours, cached exclusive end dates, then summary
// roll-ups bottom-up. Runs inside every mutating call per the staleness
// contract.
func (g *Graph) refreshDerived() {
	for _, t := range g.tasks {
		if t.Kind == KindMilestone {
			t.DurationDays = 0
			t.Progress = 0
		}
		if t.Kind != KindSummary {
			t.WorkHours = workHoursFor(t)
			t.End = cachedEnd(t)
		}
	}
	g.rollUpSummaries()
}

func workHoursFor(t *Task) float64 {
	total := 0.0
	for _, rid := range t.ResourceIDs {
		total += float64(t.DurationDays) * 8 * t.AllocationPercent(rid) / 100
	}
	return total
}

func cachedEnd(t *Task) time.Time {
	if t.Start.IsZero() {
		return time.Time{}
	}
	end, err := EndDateExclusive(t.Start, t.DurationDays)
	if err != nil {
		return time.Time{}
	}
	return end
}

// rollUpSummaries derives summary start/end/duration/progress from
// children. Start is the earliest child start, end the latest child
// exclusive end, duration the business days between them, and progress
// the work-hour-weighted mean of child progress (plain mean when the
// subtree carries no work hours). A summary with no children keeps its
// start and collapses to zero duration.
func (g *Graph) rollUpSummaries() {
	childIndex := make(map[int64][]*Task, len(g.tasks))
	for _, t := range g.tasks {
		childIndex[t.ParentID] = append(childIndex[t.ParentID], t)
	}

	done := make(map[int64]bool, len(g.tasks))
	var resolve func(t *Task)
	resolve = func(t *Task) {
		if t.Kind != KindSummary || done[t.ID] {
			return
		}
		done[t.ID] = true

		children := childIndex[t.ID]
		for _, c := range children {
			resolve(c)
		}

		if len(children) == 0 {
			if !t.Start.IsZero() {
				t.Start = Midnight(t.Start)
			}
			t.DurationDays = 0
			t.Progress = 0
			t.End = t.Start
			t.WorkHours = 0
			return
		}

		var start, end time.Time
		var weighted, weight, plain float64
		for _, c := range children {
			if !c.Start.IsZero() && (start.IsZero() || c.Start.Before(start)) {
				start = c.Start
			}
			if !c.End.IsZero() && c.End.After(end) {
				end = c.End
			}
			weighted += c.Progress * c.WorkHours
			weight += c.WorkHours
			plain += c.Progress
		}

		t.Start = start
		t.End = end
		t.DurationDays = CountBusinessDays(start, end)
		if weight > 0 {
			t.Progress = weighted / weight
		} else {
			t.Progress = plain / float64(len(children))
		}
		t.WorkHours = weight
	}

	for _, t := range g.tasks {
		resolve(t)
	}
}
