package schedule_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbeam/planbeam/internal/schedule"
)

func importTask(id int64, start time.Time, duration int) *schedule.ImportTask {
	return &schedule.ImportTask{ID: id, Name: "imported", Start: start, DurationDays: duration}
}

func TestReconciler_Merge_RemapsIDs(t *testing.T) {
	t.Parallel()

	g := schedule.NewGraph()
	mustUpsert(t, g, plainTask(1, date(2024, time.January, 8), 1))
	mustUpsert(t, g, plainTask(7, date(2024, time.January, 8), 1))
	require.NoError(t, g.SetDependencies(7, []int64{1})) // link id 1

	parent := importTask(100, date(2024, time.February, 5), 5)
	child := importTask(200, date(2024, time.February, 5), 2)
	child.ParentID = 100
	doc := &schedule.ImportDocument{
		Tasks: []*schedule.ImportTask{parent, child},
		Links: []*schedule.Link{{ID: 9, Source: 100, Target: 200, Type: "finish-to-start"}},
	}

	r := schedule.Reconciler{}
	result, err := r.Merge(g, doc)
	require.NoError(t, err)

	// Fresh ids continue from the existing maxima.
	assert.Equal(t, int64(8), result.TaskIDMap[100])
	assert.Equal(t, int64(9), result.TaskIDMap[200])
	assert.Equal(t, 2, result.TasksAdded)
	assert.Equal(t, 1, result.LinksAdded)

	merged, ok := g.Task(9)
	require.True(t, ok)
	assert.Equal(t, int64(8), merged.ParentID, "parent remapped through the same table")

	links := g.Links()
	require.Len(t, links, 2)
	assert.Equal(t, int64(2), links[1].ID, "link ids continue from the existing maximum")
	assert.Equal(t, int64(8), links[1].Source)
	assert.Equal(t, int64(9), links[1].Target)

	// Pre-existing content is appended to, never overwritten.
	_, ok = g.Task(1)
	assert.True(t, ok)
	assert.Equal(t, 4, g.Len())
}

func TestReconciler_Merge_UnmappedParentStaysRoot(t *testing.T) {
	t.Parallel()

	g := schedule.NewGraph()
	task := importTask(5, date(2024, time.February, 5), 1)
	task.ParentID = 999 // never declared by the document

	r := schedule.Reconciler{}
	result, err := r.Merge(g, &schedule.ImportDocument{Tasks: []*schedule.ImportTask{task}})
	require.NoError(t, err)

	merged, _ := g.Task(result.TaskIDMap[5])
	assert.Equal(t, int64(0), merged.ParentID)
}

// A document may declare a task with id 0. Its remap entry must not
// capture the root sentinel: root-level siblings stay at the root.
func TestReconciler_Merge_IDZeroKeepsRootSentinel(t *testing.T) {
	t.Parallel()

	g := schedule.NewGraph()
	zero := importTask(0, date(2024, time.February, 5), 1)
	root := importTask(5, date(2024, time.February, 5), 2) // ParentID 0 means root

	r := schedule.Reconciler{}
	result, err := r.Merge(g, &schedule.ImportDocument{Tasks: []*schedule.ImportTask{zero, root}})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TasksAdded, "the id-0 task imports under a fresh id")

	merged, ok := g.Task(result.TaskIDMap[5])
	require.True(t, ok)
	assert.Equal(t, int64(0), merged.ParentID, "root-level task is not reparented")
}

// A resource list of "Alice, Bob" where only Alice is on the team:
// the task still imports, keeps both names, gets Alice's id, and
// reports Bob as a warning.
func TestReconciler_Merge_PartialResourceMatch(t *testing.T) {
	t.Parallel()

	alice := uuid.New()

	g := schedule.NewGraph()
	task := importTask(1, date(2024, time.February, 5), 5)
	task.ResourceText = "Alice, Bob"

	r := schedule.Reconciler{Directory: staticResolver{"Alice": alice}}
	result, err := r.Merge(g, &schedule.ImportDocument{Tasks: []*schedule.ImportTask{task}})
	require.NoError(t, err)

	merged, _ := g.Task(result.TaskIDMap[1])
	assert.Equal(t, []string{"Alice", "Bob"}, merged.ResourceNames)
	assert.Equal(t, []uuid.UUID{alice}, merged.ResourceIDs)
	assert.Equal(t, 40.0, merged.WorkHours, "hours recomputed from the matched resource only")

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "Bob")
	assert.Equal(t, result.TaskIDMap[1], result.Warnings[0].TaskID)
}

func TestReconciler_Merge_ResourceStrategyPrecedence(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	dir := staticResolver{"Alice": alice, "Bob": bob, "Carol": carol}

	t.Run("assignments_beat_text_and_owner", func(t *testing.T) {
		t.Parallel()

		g := schedule.NewGraph()
		task := importTask(1, date(2024, time.February, 5), 5)
		task.ResourceText = "Bob"
		task.Owner = "Carol"

		r := schedule.Reconciler{Directory: dir}
		result, err := r.Merge(g, &schedule.ImportDocument{
			Tasks:       []*schedule.ImportTask{task},
			Resources:   []schedule.ImportResource{{ID: 1, Name: "Alice"}},
			Assignments: []schedule.ImportAssignment{{TaskID: 1, ResourceID: 1, Percent: 50}},
		})
		require.NoError(t, err)

		merged, _ := g.Task(result.TaskIDMap[1])
		assert.Equal(t, []uuid.UUID{alice}, merged.ResourceIDs)
		assert.Equal(t, 50.0, merged.Allocations[alice])
		assert.Equal(t, 20.0, merged.WorkHours)
	})

	t.Run("text_beats_owner", func(t *testing.T) {
		t.Parallel()

		g := schedule.NewGraph()
		task := importTask(1, date(2024, time.February, 5), 5)
		task.ResourceText = "Bob"
		task.Owner = "Carol"

		r := schedule.Reconciler{Directory: dir}
		result, err := r.Merge(g, &schedule.ImportDocument{Tasks: []*schedule.ImportTask{task}})
		require.NoError(t, err)

		merged, _ := g.Task(result.TaskIDMap[1])
		assert.Equal(t, []uuid.UUID{bob}, merged.ResourceIDs)
	})

	t.Run("owner_is_last_resort", func(t *testing.T) {
		t.Parallel()

		g := schedule.NewGraph()
		task := importTask(1, date(2024, time.February, 5), 5)
		task.Owner = "Carol"

		r := schedule.Reconciler{Directory: dir}
		result, err := r.Merge(g, &schedule.ImportDocument{Tasks: []*schedule.ImportTask{task}})
		require.NoError(t, err)

		merged, _ := g.Task(result.TaskIDMap[1])
		assert.Equal(t, []uuid.UUID{carol}, merged.ResourceIDs)
	})
}

func TestReconciler_Merge_DiscardsOrphanLinks(t *testing.T) {
	t.Parallel()

	g := schedule.NewGraph()
	doc := &schedule.ImportDocument{
		Tasks: []*schedule.ImportTask{importTask(1, date(2024, time.February, 5), 1)},
		Links: []*schedule.Link{
			{ID: 1, Source: 1, Target: 42}, // 42 never declared
		},
	}

	r := schedule.Reconciler{}
	result, err := r.Merge(g, doc)
	require.NoError(t, err)

	assert.Equal(t, 0, result.LinksAdded)
	assert.Empty(t, g.Links())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "discarded")
}

func TestParseImportDocument(t *testing.T) {
	t.Parallel()

	t.Run("malformed_is_fatal", func(t *testing.T) {
		t.Parallel()

		_, err := schedule.ParseImportDocument([]byte(`{"tasks": [{`))
		require.ErrorIs(t, err, schedule.ErrMalformedInput)
	})

	t.Run("extension_fields_survive", func(t *testing.T) {
		t.Parallel()

		doc, err := schedule.ParseImportDocument([]byte(`{
			"tasks": [{"id": 1, "name": "x", "start_date": "2024-02-05T00:00:00Z", "duration_days": 1, "cost_code": "CC-17"}]
		}`))
		require.NoError(t, err)
		require.Len(t, doc.Tasks, 1)
		assert.JSONEq(t, `"CC-17"`, string(doc.Tasks[0].Extensions["cost_code"]))

		g := schedule.NewGraph()
		r := schedule.Reconciler{}
		result, mergeErr := r.Merge(g, doc)
		require.NoError(t, mergeErr)

		merged, _ := g.Task(result.TaskIDMap[1])
		assert.Equal(t, `"CC-17"`, string(merged.Extensions["cost_code"]))
	})
}

// A failed validation aborts the whole merge: no tasks, no links, no
// partial state.
func TestReconciler_Merge_Atomic(t *testing.T) {
	t.Parallel()

	g := schedule.NewGraph()
	mustUpsert(t, g, plainTask(1, date(2024, time.January, 8), 1))

	bad := importTask(10, date(2024, time.February, 5), -3)
	good := importTask(11, date(2024, time.February, 5), 2)

	r := schedule.Reconciler{}
	_, err := r.Merge(g, &schedule.ImportDocument{Tasks: []*schedule.ImportTask{good, bad}})
	require.ErrorIs(t, err, schedule.ErrInvalidDuration)
	assert.Equal(t, 1, g.Len(), "nothing appended on failure")
}

func TestReconciler_Merge_CaseInsensitiveNameFallback(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	g := schedule.NewGraph()
	task := importTask(1, date(2024, time.February, 5), 1)
	task.ResourceText = "  alice  "

	r := schedule.Reconciler{Directory: foldingResolver{"Alice": alice}}
	result, err := r.Merge(g, &schedule.ImportDocument{Tasks: []*schedule.ImportTask{task}})
	require.NoError(t, err)

	merged, _ := g.Task(result.TaskIDMap[1])
	assert.Equal(t, []uuid.UUID{alice}, merged.ResourceIDs)
	assert.Empty(t, result.Warnings)
}

// foldingResolver mimics a directory with exact-then-folded matching.
type foldingResolver map[string]uuid.UUID

func (r foldingResolver) Resolve(name string) (uuid.UUID, bool) {
	if id, ok := r[name]; ok {
		return id, true
	}
	for k, id := range r {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(name)) {
			return id, true
		}
	}
	return uuid.Nil, false
}
