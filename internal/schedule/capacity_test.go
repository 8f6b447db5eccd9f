package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbeam/planbeam/internal/schedule"
)

type staticResolver map[string]uuid.UUID

func (r staticResolver) Resolve(name string) (uuid.UUID, bool) {
	id, ok := r[name]
	return id, ok
}

func aggregate(t *testing.T, agg schedule.CapacityAggregator, graphs []*schedule.Graph, ids []uuid.UUID, ref time.Time) *schedule.CapacityReport {
	t.Helper()
	report, err := agg.Aggregate(context.Background(), graphs, ids, ref)
	require.NoError(t, err)
	return report
}

func TestCapacityAggregator_FullWeek(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	g := schedule.NewGraph()
	task := plainTask(1, date(2024, time.January, 8), 5) // Mon-Fri
	task.ResourceIDs = []uuid.UUID{alice}
	task.ResourceNames = []string{"Alice"}
	mustUpsert(t, g, task)

	agg := schedule.CapacityAggregator{Weeks: 4}
	report := aggregate(t, agg, []*schedule.Graph{g}, []uuid.UUID{alice}, date(2024, time.January, 10))

	require.Len(t, report.WeekStarts, 4)
	assert.Equal(t, date(2024, time.January, 8), report.WeekStarts[0], "anchored to the Monday on or before the reference date")

	hours := report.Hours[alice]
	require.Len(t, hours, 4)
	assert.Equal(t, 40, hours[0], "a full week at 100% is exactly 40 hours")
	assert.Equal(t, 0, hours[1])
	assert.Equal(t, 0, hours[2])
}

func TestCapacityAggregator_SharedWeekAcrossProjects(t *testing.T) {
	t.Parallel()

	r := uuid.New()

	projectA := schedule.NewGraph()
	taskA := plainTask(1, date(2024, time.January, 8), 5)
	taskA.ResourceIDs = []uuid.UUID{r}
	taskA.ResourceNames = []string{"R"}
	mustUpsert(t, projectA, taskA)

	projectB := schedule.NewGraph()
	taskB := plainTask(1, date(2024, time.January, 8), 5)
	taskB.ResourceIDs = []uuid.UUID{r}
	taskB.ResourceNames = []string{"R"}
	taskB.Allocations = map[uuid.UUID]float64{r: 50}
	mustUpsert(t, projectB, taskB)

	agg := schedule.CapacityAggregator{Weeks: 1}
	report := aggregate(t, agg, []*schedule.Graph{projectA, projectB}, []uuid.UUID{r}, date(2024, time.January, 8))

	assert.Equal(t, 60, report.Hours[r][0], "40h at 100% plus 20h at 50%")

	// The same overlap also counts as a scheduling conflict.
	flags := schedule.DetectOverallocations([]schedule.ProjectGraph{
		{ProjectID: uuid.New(), Graph: projectA},
		{ProjectID: uuid.New(), Graph: projectB},
	})
	assert.Len(t, flags, 2, "both bookings flagged")
}

func TestCapacityAggregator_SpansWeeks(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	g := schedule.NewGraph()
	// Wed start, 6 working days: 3 in week one, 3 in week two.
	task := plainTask(1, date(2024, time.January, 10), 6)
	task.ResourceIDs = []uuid.UUID{alice}
	task.ResourceNames = []string{"Alice"}
	mustUpsert(t, g, task)

	agg := schedule.CapacityAggregator{Weeks: 3}
	report := aggregate(t, agg, []*schedule.Graph{g}, []uuid.UUID{alice}, date(2024, time.January, 8))

	hours := report.Hours[alice]
	assert.Equal(t, 24, hours[0])
	assert.Equal(t, 24, hours[1])
	assert.Equal(t, 0, hours[2])
}

func TestCapacityAggregator_LegacyOwnerFallback(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	g := schedule.NewGraph()
	task := plainTask(1, date(2024, time.January, 8), 5)
	task.Owner = "Alice"
	mustUpsert(t, g, task)

	t.Run("with_resolver", func(t *testing.T) {
		t.Parallel()

		agg := schedule.CapacityAggregator{
			Weeks:    1,
			Resolver: staticResolver{"Alice": alice},
		}
		report := aggregate(t, agg, []*schedule.Graph{g}, []uuid.UUID{alice}, date(2024, time.January, 8))
		assert.Equal(t, 40, report.Hours[alice][0])
	})

	t.Run("without_resolver", func(t *testing.T) {
		t.Parallel()

		agg := schedule.CapacityAggregator{Weeks: 1}
		report := aggregate(t, agg, []*schedule.Graph{g}, []uuid.UUID{alice}, date(2024, time.January, 8))
		assert.Equal(t, 0, report.Hours[alice][0], "owner name cannot match without a directory")
	})
}

func TestCapacityAggregator_DefaultWeeks(t *testing.T) {
	t.Parallel()

	agg := schedule.CapacityAggregator{}
	report := aggregate(t, agg, nil, []uuid.UUID{uuid.New()}, date(2024, time.January, 8))
	assert.Len(t, report.WeekStarts, schedule.DefaultCapacityWeeks)
}

func TestClassifyLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hours int
		want  schedule.LoadLevel
	}{
		{0, schedule.LoadIdle},
		{1, schedule.LoadLight},
		{30, schedule.LoadLight},
		{31, schedule.LoadNearCapacity},
		{40, schedule.LoadNearCapacity},
		{41, schedule.LoadOverallocated},
		{60, schedule.LoadOverallocated},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, schedule.ClassifyLoad(tt.hours), "hours=%d", tt.hours)
	}
}
