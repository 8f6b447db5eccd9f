package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImportResource is a resource declared by the interchange document. Its
// id is local to the importer and never leaks into the graph.
type ImportResource struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ImportAssignment ties an imported task to an imported resource, with an
// optional engagement percentage (0 means unspecified, treated as 100).
type ImportAssignment struct {
	TaskID     int64   `json:"task_id"`
	ResourceID int64   `json:"resource_id"`
	Percent    float64 `json:"percent,omitempty"`
}

// ImportTask is one task from an interchange document, after the upstream
// adapter has normalized the source format. Resource identity arrives in
// up to three shapes: assignment records, a comma-separated free-text
// field, or a single legacy owner.
type ImportTask struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	Start        time.Time `json:"start_date"`
	DurationDays int       `json:"duration_days"`
	Progress     float64   `json:"progress"`
	ParentID     int64     `json:"parent_id"`
	ResourceText string    `json:"resource_text,omitempty"`
	Owner        string    `json:"owner,omitempty"`

	Extensions map[string]json.RawMessage `json:"-"`
}

var knownImportTaskFields = map[string]struct{}{
	"id": {}, "name": {}, "kind": {}, "start_date": {}, "duration_days": {},
	"progress": {}, "parent_id": {}, "resource_text": {}, "owner": {},
}

type importTaskAlias ImportTask

// UnmarshalJSON captures unknown keys as extension fields, mirroring Task.
func (t *ImportTask) UnmarshalJSON(b []byte) error {
	var a importTaskAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, known := knownImportTaskFields[k]; known {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		a.Extensions = raw
	}
	*t = ImportTask(a)
	return nil
}

// ImportDocument is the normalized interchange shape the reconciler
// consumes.
type ImportDocument struct {
	Tasks       []*ImportTask      `json:"tasks"`
	Links       []*Link            `json:"links"`
	Resources   []ImportResource   `json:"resources"`
	Assignments []ImportAssignment `json:"resource_assignments"`
}

// ParseImportDocument decodes an interchange document. Failure here is
// fatal: reconciliation never starts on a payload it cannot read.
func ParseImportDocument(b []byte) (*ImportDocument, error) {
	var doc ImportDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return &doc, nil
}

// ImportWarning is one non-fatal reconciliation problem. TaskID refers to
// the id the task received in the target graph, 0 when the warning is not
// tied to a surviving task.
type ImportWarning struct {
	TaskID  int64  `json:"task_id,omitempty"`
	Message string `json:"message"`
}

// ImportResult reports what a merge did.
type ImportResult struct {
	TaskIDMap  map[int64]int64 `json:"task_id_map"` // original id -> assigned id
	TasksAdded int             `json:"tasks_added"`
	LinksAdded int             `json:"links_added"`
	Warnings   []ImportWarning `json:"warnings,omitempty"`
}

// Reconciler merges interchange documents into an existing graph without
// id collisions, matching imported resource names against the project's
// team directory.
type Reconciler struct {
	Directory NameResolver // nil means every resource name goes unmatched
}

// resourceClaim is one resource an imported task asks for, before
// directory matching.
type resourceClaim struct {
	name    string
	percent float64 // 0 = unspecified
}

// Merge appends the document's tasks and links onto g with fresh ids.
// Tasks are never dropped for resource-matching failures; those surface
// as warnings. The merge is atomic: any hard validation failure leaves g
// untouched.
func (r *Reconciler) Merge(g *Graph, doc *ImportDocument) (*ImportResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil import document", ErrMalformedInput)
	}

	result := &ImportResult{TaskIDMap: make(map[int64]int64, len(doc.Tasks))}

	nextTaskID := g.MaxTaskID() + 1
	for _, it := range doc.Tasks {
		if _, dup := result.TaskIDMap[it.ID]; dup {
			return nil, fmt.Errorf("%w: imported task %d", ErrDuplicateTaskID, it.ID)
		}
		result.TaskIDMap[it.ID] = nextTaskID
		nextTaskID++
	}

	resourceNames := make(map[int64]string, len(doc.Resources))
	for _, res := range doc.Resources {
		resourceNames[res.ID] = res.Name
	}

	tasks := make([]*Task, 0, len(doc.Tasks))
	for _, it := range doc.Tasks {
		newID := result.TaskIDMap[it.ID]
		// Zero never goes through the remap table: it is the root
		// sentinel, not a task reference, even when the document
		// declares a task with id 0.
		var parentID int64
		if it.ParentID != 0 {
			parentID = result.TaskIDMap[it.ParentID] // unmapped parent stays root
		}
		t := &Task{
			ID:           newID,
			Name:         it.Name,
			Kind:         it.Kind,
			Start:        it.Start,
			DurationDays: it.DurationDays,
			Progress:     it.Progress,
			ParentID:     parentID,
			Owner:        it.Owner,
			Extensions:   it.Extensions,
		}

		// Matched names lead the name list so each resource id stays
		// parallel to its name; unmatched names trail with no id.
		var unmatched []string
		for _, claim := range r.claimsFor(it, doc, resourceNames, result) {
			id, ok := r.resolve(claim.name)
			if !ok {
				// Keep the name so nothing is silently lost; the task
				// imports without a resource id for it.
				unmatched = append(unmatched, claim.name)
				result.Warnings = append(result.Warnings, ImportWarning{
					TaskID:  newID,
					Message: fmt.Sprintf("resource %q not found in team directory", claim.name),
				})
				continue
			}
			t.ResourceIDs = append(t.ResourceIDs, id)
			t.ResourceNames = append(t.ResourceNames, claim.name)
			if claim.percent > 0 && claim.percent != 100 {
				if t.Allocations == nil {
					t.Allocations = make(map[uuid.UUID]float64)
				}
				t.Allocations[id] = claim.percent
			}
		}
		t.ResourceNames = append(t.ResourceNames, unmatched...)
		tasks = append(tasks, t)
	}

	nextLinkID := g.MaxLinkID() + 1
	links := make([]*Link, 0, len(doc.Links))
	for _, l := range doc.Links {
		src, srcOK := result.TaskIDMap[l.Source]
		dst, dstOK := result.TaskIDMap[l.Target]
		if !srcOK || !dstOK {
			// Should not happen since tasks are never dropped, but an
			// interchange link can reference a task the document never
			// declared.
			result.Warnings = append(result.Warnings, ImportWarning{
				Message: fmt.Sprintf("link %d references a task missing from the import; discarded", l.ID),
			})
			continue
		}
		linkType := l.Type
		if linkType == "" {
			linkType = LinkTypeFinishToStart
		}
		links = append(links, &Link{ID: nextLinkID, Source: src, Target: dst, Type: linkType})
		nextLinkID++
	}

	if err := g.appendBatch(tasks, links); err != nil {
		return nil, err
	}

	result.TasksAdded = len(tasks)
	result.LinksAdded = len(links)
	return result, nil
}

// claimsFor extracts the resources a task asks for, trying each strategy
// in priority order and stopping at the first that yields anything:
// explicit assignment records, then the comma-separated free-text field,
// then the legacy single owner.
func (r *Reconciler) claimsFor(it *ImportTask, doc *ImportDocument, resourceNames map[int64]string, result *ImportResult) []resourceClaim {
	var claims []resourceClaim
	for _, a := range doc.Assignments {
		if a.TaskID != it.ID {
			continue
		}
		name, ok := resourceNames[a.ResourceID]
		if !ok {
			result.Warnings = append(result.Warnings, ImportWarning{
				TaskID:  result.TaskIDMap[it.ID],
				Message: fmt.Sprintf("assignment references undeclared resource %d; skipped", a.ResourceID),
			})
			continue
		}
		claims = append(claims, resourceClaim{name: name, percent: a.Percent})
	}
	if len(claims) > 0 {
		return claims
	}

	for _, part := range strings.Split(it.ResourceText, ",") {
		name := strings.TrimSpace(part)
		if name != "" {
			claims = append(claims, resourceClaim{name: name})
		}
	}
	if len(claims) > 0 {
		return claims
	}

	if owner := strings.TrimSpace(it.Owner); owner != "" {
		claims = append(claims, resourceClaim{name: owner})
	}
	return claims
}

func (r *Reconciler) resolve(name string) (uuid.UUID, bool) {
	if r.Directory == nil {
		return uuid.Nil, false
	}
	return r.Directory.Resolve(name)
}
