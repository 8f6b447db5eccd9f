package schedule_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbeam/planbeam/internal/schedule"
)

func bookedTask(id int64, rid uuid.UUID, start time.Time, duration int) *schedule.Task {
	t := plainTask(id, start, duration)
	t.ResourceIDs = []uuid.UUID{rid}
	t.ResourceNames = []string{"R"}
	return t
}

func TestDetectOverallocations(t *testing.T) {
	t.Parallel()

	r := uuid.New()
	projectID := uuid.New()

	tests := []struct {
		name      string
		tasks     []*schedule.Task
		wantFlags int
	}{
		{
			name: "identical_ranges_flag_each_other",
			tasks: []*schedule.Task{
				bookedTask(1, r, date(2024, time.January, 8), 5),
				bookedTask(2, r, date(2024, time.January, 8), 5),
			},
			wantFlags: 2,
		},
		{
			name: "disjoint_ranges_never_flag",
			tasks: []*schedule.Task{
				bookedTask(1, r, date(2024, time.January, 8), 3),
				bookedTask(2, r, date(2024, time.February, 5), 3),
			},
			wantFlags: 0,
		},
		{
			name: "boundary_touch_is_not_overlap",
			tasks: []*schedule.Task{
				// First task's exclusive end is Thu Jan 11; the second
				// starts exactly there.
				bookedTask(1, r, date(2024, time.January, 8), 3),
				bookedTask(2, r, date(2024, time.January, 11), 3),
			},
			wantFlags: 0,
		},
		{
			name: "one_day_overlap_flags",
			tasks: []*schedule.Task{
				bookedTask(1, r, date(2024, time.January, 8), 3),
				bookedTask(2, r, date(2024, time.January, 10), 3),
			},
			wantFlags: 2,
		},
		{
			name: "different_resources_never_conflict",
			tasks: []*schedule.Task{
				bookedTask(1, r, date(2024, time.January, 8), 5),
				bookedTask(2, uuid.New(), date(2024, time.January, 8), 5),
			},
			wantFlags: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := schedule.NewGraph()
			for _, task := range tt.tasks {
				mustUpsert(t, g, task)
			}

			flags := schedule.DetectOverallocations([]schedule.ProjectGraph{
				{ProjectID: projectID, Graph: g},
			})
			assert.Len(t, flags, tt.wantFlags)
		})
	}
}

// Conflicts are detected across project boundaries: the comparison set is
// every active project, not one graph.
func TestDetectOverallocations_CrossProject(t *testing.T) {
	t.Parallel()

	r := uuid.New()
	pa := uuid.New()
	pb := uuid.New()

	ga := schedule.NewGraph()
	mustUpsert(t, ga, bookedTask(1, r, date(2024, time.January, 8), 5))
	gb := schedule.NewGraph()
	mustUpsert(t, gb, bookedTask(1, r, date(2024, time.January, 10), 5))

	flags := schedule.DetectOverallocations([]schedule.ProjectGraph{
		{ProjectID: pa, Graph: ga},
		{ProjectID: pb, Graph: gb},
	})

	require.Len(t, flags, 2)
	assert.Contains(t, flags, schedule.TaskRef{ProjectID: pa, TaskID: 1})
	assert.Contains(t, flags, schedule.TaskRef{ProjectID: pb, TaskID: 1})
}

// Allocation percentages are irrelevant here: two half-time bookings on
// the same days are a scheduling conflict even though capacity is fine.
func TestDetectOverallocations_IgnoresAllocation(t *testing.T) {
	t.Parallel()

	r := uuid.New()
	g := schedule.NewGraph()
	for id := int64(1); id <= 2; id++ {
		task := bookedTask(id, r, date(2024, time.January, 8), 5)
		task.Allocations = map[uuid.UUID]float64{r: 50}
		mustUpsert(t, g, task)
	}

	flags := schedule.DetectOverallocations([]schedule.ProjectGraph{
		{ProjectID: uuid.New(), Graph: g},
	})
	assert.Len(t, flags, 2)
}

func TestDetectOverallocations_SkipsSummaries(t *testing.T) {
	t.Parallel()

	r := uuid.New()
	g := schedule.NewGraph()
	mustUpsert(t, g, &schedule.Task{ID: 1, Kind: schedule.KindSummary})
	for id := int64(2); id <= 3; id++ {
		task := bookedTask(id, r, date(2024, time.January, 8), 5)
		task.ParentID = 1
		mustUpsert(t, g, task)
	}

	flags := schedule.DetectOverallocations([]schedule.ProjectGraph{
		{ProjectID: uuid.New(), Graph: g},
	})
	require.Len(t, flags, 2, "children conflict; the derived summary row does not")
	for _, f := range flags {
		assert.NotEqual(t, int64(1), f.TaskID)
	}
}
