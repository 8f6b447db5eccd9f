package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/planbeam/planbeam/internal/directory"
	"github.com/planbeam/planbeam/internal/schedule"
)

type LoadScheduleInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	// Raw body: extension fields on tasks must pass through untouched,
	// so the document is decoded by the engine codec, not the API schema.
	RawBody []byte
}

type LoadScheduleOutput struct {
	Body struct {
		TasksLoaded int `json:"tasks_loaded"`
		LinksLoaded int `json:"links_loaded"`
	}
}

type GetScheduleInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
}

type GetScheduleOutput struct {
	Body *schedule.Document
}

type ImportScheduleInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	RawBody   []byte
}

type ImportScheduleOutput struct {
	Body *schedule.ImportResult
}

type SetBaselineInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	Slot      int       `path:"slot" minimum:"0" maximum:"10" doc:"Baseline slot number"`
}

type SetBaselineOutput struct {
	Body struct {
		Slot int `json:"slot"`
	}
}

func RegisterScheduleRoutes(api huma.API, store ScheduleStore) {
	huma.Register(api, huma.Operation{
		OperationID: "load-schedule",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/schedule",
		Summary:     "Load a project's schedule from a serialized document",
		Tags:        []string{"Schedules"},
	}, func(ctx context.Context, input *LoadScheduleInput) (*LoadScheduleOutput, error) {
		doc, err := schedule.ParseDocument(input.RawBody)
		if err != nil {
			return nil, mapEngineError(err)
		}
		g, err := schedule.NewGraphFromDocument(doc)
		if err != nil {
			return nil, mapEngineError(err)
		}

		store.Replace(input.ProjectID, g)

		out := &LoadScheduleOutput{}
		out.Body.TasksLoaded = g.Len()
		out.Body.LinksLoaded = len(g.Links())
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-schedule",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/schedule",
		Summary:     "Serialize a project's schedule",
		Tags:        []string{"Schedules"},
	}, func(ctx context.Context, input *GetScheduleInput) (*GetScheduleOutput, error) {
		var doc *schedule.Document
		err := store.View(input.ProjectID, func(g *schedule.Graph, _ *directory.Directory) error {
			doc = g.Document()
			return nil
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		return &GetScheduleOutput{Body: doc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-schedule",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/schedule/import",
		Summary:     "Merge an externally produced schedule into the project",
		Description: "Imported tasks and links receive fresh ids; resource names are matched against the project's team directory. Unmatched names come back as warnings, never as dropped tasks.",
		Tags:        []string{"Schedules"},
	}, func(ctx context.Context, input *ImportScheduleInput) (*ImportScheduleOutput, error) {
		doc, err := schedule.ParseImportDocument(input.RawBody)
		if err != nil {
			return nil, mapEngineError(err)
		}

		var result *schedule.ImportResult
		err = store.Mutate(input.ProjectID, func(g *schedule.Graph, team *directory.Directory) error {
			r := schedule.Reconciler{Directory: team}
			var mergeErr error
			result, mergeErr = r.Merge(g, doc)
			return mergeErr
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		return &ImportScheduleOutput{Body: result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-baseline",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/baselines/{slot}",
		Summary:     "Snapshot every task's current dates into a baseline slot",
		Tags:        []string{"Schedules"},
	}, func(ctx context.Context, input *SetBaselineInput) (*SetBaselineOutput, error) {
		err := store.Mutate(input.ProjectID, func(g *schedule.Graph, _ *directory.Directory) error {
			return schedule.SetBaseline(g, input.Slot)
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		out := &SetBaselineOutput{}
		out.Body.Slot = input.Slot
		return out, nil
	})
}
