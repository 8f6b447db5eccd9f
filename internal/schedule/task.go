package schedule

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a task row.
type Kind string

const (
	KindTask      Kind = "task"
	KindMilestone Kind = "milestone"
	KindSummary   Kind = "summary"
)

// IsValid returns true if the kind is a known value. An empty kind is
// treated as KindTask by the graph, so it is not valid here.
func (k Kind) IsValid() bool {
	switch k {
	case KindTask, KindMilestone, KindSummary:
		return true
	default:
		return false
	}
}

// LinkTypeFinishToStart is the only dependency type the engine schedules.
// Other types round-trip untouched.
const LinkTypeFinishToStart = "finish-to-start"

// BaselineSpan is one frozen (start, exclusive end) pair.
type BaselineSpan struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Task is one scheduled unit of work. IDs are unique within a project's
// graph, not globally. End and WorkHours are derived: the graph recomputes
// them on every mutation and they are never authoritative inputs.
type Task struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	Start        time.Time `json:"start_date"`
	DurationDays int       `json:"duration_days"`
	Progress     float64   `json:"progress"`
	ParentID     int64     `json:"parent_id"`

	// ResourceIDs and ResourceNames are parallel arrays in matching order.
	ResourceIDs   []uuid.UUID `json:"resource_ids,omitempty"`
	ResourceNames []string    `json:"resource_names,omitempty"`

	// Allocations maps resource id to an engagement percentage
	// (100 = one FTE). Keys are a subset of ResourceIDs; a missing key
	// means 100.
	Allocations map[uuid.UUID]float64 `json:"allocations,omitempty"`

	// Owner is the legacy single-owner display name, kept for documents
	// produced before multi-resource assignment existed.
	Owner string `json:"owner,omitempty"`

	// End is the cached exclusive end date, WorkHours the cached
	// duration x 8h x allocation sum. Both derived.
	End       time.Time `json:"end_date"`
	WorkHours float64   `json:"work_hours"`

	Baselines map[int]BaselineSpan `json:"baselines,omitempty"`

	// Extensions carries custom fields the engine does not interpret.
	// They survive every operation and re-serialize byte for byte.
	Extensions map[string]json.RawMessage `json:"-"`
}

// Link is one dependency edge. Only finish-to-start participates in
// scheduling semantics; Type is otherwise opaque.
type Link struct {
	ID     int64  `json:"id"`
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Type   string `json:"type"`
}

// Resource is an (id, display name) pair owned by the external team
// directory. The engine never mutates resources.
type Resource struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.ResourceIDs != nil {
		c.ResourceIDs = append([]uuid.UUID(nil), t.ResourceIDs...)
	}
	if t.ResourceNames != nil {
		c.ResourceNames = append([]string(nil), t.ResourceNames...)
	}
	if t.Allocations != nil {
		c.Allocations = make(map[uuid.UUID]float64, len(t.Allocations))
		for k, v := range t.Allocations {
			c.Allocations[k] = v
		}
	}
	if t.Baselines != nil {
		c.Baselines = make(map[int]BaselineSpan, len(t.Baselines))
		for k, v := range t.Baselines {
			c.Baselines[k] = v
		}
	}
	if t.Extensions != nil {
		c.Extensions = make(map[string]json.RawMessage, len(t.Extensions))
		for k, v := range t.Extensions {
			c.Extensions[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// HasResource reports whether id appears in the task's resource set.
func (t *Task) HasResource(id uuid.UUID) bool {
	for _, r := range t.ResourceIDs {
		if r == id {
			return true
		}
	}
	return false
}

// AllocationPercent returns the engagement percentage for a resource,
// defaulting to 100 when no explicit entry exists.
func (t *Task) AllocationPercent(id uuid.UUID) float64 {
	if p, ok := t.Allocations[id]; ok {
		return p
	}
	return 100
}

// knownTaskFields are the JSON keys owned by Task itself; anything else in
// an incoming document is an extension field.
var knownTaskFields = map[string]struct{}{
	"id": {}, "name": {}, "kind": {}, "start_date": {}, "duration_days": {},
	"progress": {}, "parent_id": {}, "resource_ids": {}, "resource_names": {},
	"allocations": {}, "owner": {}, "end_date": {}, "work_hours": {},
	"baselines": {},
}

type taskAlias Task

// UnmarshalJSON decodes the declared fields and captures every unknown key
// into Extensions untouched.
func (t *Task) UnmarshalJSON(b []byte) error {
	var a taskAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, known := knownTaskFields[k]; known {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		a.Extensions = raw
	}

	*t = Task(a)
	return nil
}

// MarshalJSON re-emits extension fields alongside the declared ones.
// A declared field always wins a key collision.
func (t *Task) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*taskAlias)(t))
	if err != nil {
		return nil, err
	}
	if len(t.Extensions) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range t.Extensions {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
