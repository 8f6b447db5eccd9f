package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/planbeam/planbeam/internal/directory"
	"github.com/planbeam/planbeam/internal/schedule"
)

type GetGroupedViewInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
}

type GetGroupedViewOutput struct {
	Body *schedule.GroupedView
}

type GetHeatmapInput struct {
	ResourceIDs []string `query:"resource_ids" required:"true" doc:"Resource IDs to report on"`
	Weeks       int      `query:"weeks" doc:"Number of reporting weeks (default 12)"`
}

// ResourceLoad is one heatmap row with per-week hours and the shared
// presentation classification.
type ResourceLoad struct {
	ResourceID uuid.UUID            `json:"resource_id"`
	Hours      []int                `json:"hours"`
	Levels     []schedule.LoadLevel `json:"levels"`
}

type GetHeatmapOutput struct {
	Body struct {
		WeekStarts []time.Time     `json:"week_starts"`
		Rows       []*ResourceLoad `json:"rows"`
	}
}

type ListOverallocationsOutput struct {
	Body struct {
		Tasks []schedule.TaskRef `json:"tasks"`
	}
}

// RegisterViewRoutes wires the read-only projections. defaultWeeks is the
// heatmap horizon used when a request does not ask for one.
func RegisterViewRoutes(api huma.API, store ScheduleStore, defaultWeeks int) {
	huma.Register(api, huma.Operation{
		OperationID: "get-grouped-schedule",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/schedule/grouped",
		Summary:     "Get the schedule regrouped into one lane per resource",
		Tags:        []string{"Views"},
	}, func(ctx context.Context, input *GetGroupedViewInput) (*GetGroupedViewOutput, error) {
		var view *schedule.GroupedView
		err := store.View(input.ProjectID, func(g *schedule.Graph, _ *directory.Directory) error {
			view = schedule.GroupByResource(g)
			return nil
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		return &GetGroupedViewOutput{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-capacity-heatmap",
		Method:      http.MethodGet,
		Path:        "/capacity/heatmap",
		Summary:     "Get per-resource weekly allocated hours across all projects",
		Tags:        []string{"Views"},
	}, func(ctx context.Context, input *GetHeatmapInput) (*GetHeatmapOutput, error) {
		// Malformed ids degrade to "unknown resource" rather than
		// failing the dashboard.
		ids := make([]uuid.UUID, 0, len(input.ResourceIDs))
		for _, raw := range input.ResourceIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}

		weeks := input.Weeks
		if weeks <= 0 {
			weeks = defaultWeeks
		}
		agg := schedule.CapacityAggregator{
			Weeks:    weeks,
			Resolver: store.Resolver(),
		}
		report, err := agg.Aggregate(ctx, graphsOf(store.Snapshot()), ids, time.Now())
		if err != nil {
			return nil, huma.Error500InternalServerError("capacity aggregation failed", err)
		}

		out := &GetHeatmapOutput{}
		out.Body.WeekStarts = report.WeekStarts
		for _, id := range ids {
			hours := report.Hours[id]
			levels := make([]schedule.LoadLevel, len(hours))
			for i, h := range hours {
				levels[i] = schedule.ClassifyLoad(h)
			}
			out.Body.Rows = append(out.Body.Rows, &ResourceLoad{
				ResourceID: id,
				Hours:      hours,
				Levels:     levels,
			})
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-overallocations",
		Method:      http.MethodGet,
		Path:        "/overallocations",
		Summary:     "List tasks with conflicting resource bookings across all projects",
		Tags:        []string{"Views"},
	}, func(ctx context.Context, _ *struct{}) (*ListOverallocationsOutput, error) {
		out := &ListOverallocationsOutput{}
		out.Body.Tasks = schedule.DetectOverallocations(store.Snapshot())
		if out.Body.Tasks == nil {
			out.Body.Tasks = []schedule.TaskRef{}
		}
		return out, nil
	})
}

func graphsOf(sets []schedule.ProjectGraph) []*schedule.Graph {
	graphs := make([]*schedule.Graph, 0, len(sets))
	for _, pg := range sets {
		if pg.Graph != nil {
			graphs = append(graphs, pg.Graph)
		}
	}
	return graphs
}
