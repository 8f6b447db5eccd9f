package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/planbeam/planbeam/internal/directory"
	"github.com/planbeam/planbeam/internal/schedule"
)

type UpsertTaskInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	// Raw body so custom extension fields round-trip untouched.
	RawBody []byte
}

type UpsertTaskOutput struct {
	Body *schedule.Task
}

type DeleteTaskInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	TaskID    int64     `path:"taskID" doc:"Task ID"`
}

type SetDependenciesInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	TaskID    int64     `path:"taskID" doc:"Task ID"`
	Body      struct {
		PredecessorIDs []int64 `json:"predecessor_ids" doc:"Tasks that must finish before this one starts"`
	}
}

type SetDependenciesOutput struct {
	Body struct {
		Links []*schedule.Link `json:"links"`
	}
}

type AssignResourcesInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	TaskID    int64     `path:"taskID" doc:"Task ID"`
	Body      struct {
		ResourceIDs   []uuid.UUID           `json:"resource_ids"`
		ResourceNames []string              `json:"resource_names"`
		Allocations   map[uuid.UUID]float64 `json:"allocations,omitempty" doc:"Engagement percent per resource; missing means 100"`
	}
}

type AssignResourcesOutput struct {
	Body *schedule.Task
}

func RegisterTaskRoutes(api huma.API, store ScheduleStore) {
	huma.Register(api, huma.Operation{
		OperationID: "upsert-task",
		Method:      http.MethodPost,
		Path:        "/projects/{projectID}/tasks",
		Summary:     "Create or replace a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpsertTaskInput) (*UpsertTaskOutput, error) {
		var t schedule.Task
		if err := t.UnmarshalJSON(input.RawBody); err != nil {
			return nil, huma.Error400BadRequest("malformed task: " + err.Error())
		}

		var stored *schedule.Task
		err := store.Mutate(input.ProjectID, func(g *schedule.Graph, _ *directory.Directory) error {
			var upsertErr error
			stored, upsertErr = g.UpsertTask(&t)
			return upsertErr
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		return &UpsertTaskOutput{Body: stored}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/projects/{projectID}/tasks/{taskID}",
		Summary:     "Delete a task, its subtree, and every link touching them",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		err := store.Mutate(input.ProjectID, func(g *schedule.Graph, _ *directory.Directory) error {
			return g.DeleteTask(input.TaskID)
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-dependencies",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/tasks/{taskID}/dependencies",
		Summary:     "Replace a task's predecessors with finish-to-start links",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *SetDependenciesInput) (*SetDependenciesOutput, error) {
		var links []*schedule.Link
		err := store.Mutate(input.ProjectID, func(g *schedule.Graph, _ *directory.Directory) error {
			if err := g.SetDependencies(input.TaskID, input.Body.PredecessorIDs); err != nil {
				return err
			}
			for _, l := range g.Links() {
				if l.Target == input.TaskID {
					links = append(links, l)
				}
			}
			return nil
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		out := &SetDependenciesOutput{}
		out.Body.Links = links
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-resources",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/tasks/{taskID}/resources",
		Summary:     "Replace a task's resource assignment",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *AssignResourcesInput) (*AssignResourcesOutput, error) {
		var stored *schedule.Task
		err := store.Mutate(input.ProjectID, func(g *schedule.Graph, _ *directory.Directory) error {
			var assignErr error
			stored, assignErr = g.AssignResources(input.TaskID, input.Body.ResourceIDs, input.Body.ResourceNames, input.Body.Allocations)
			return assignErr
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		return &AssignResourcesOutput{Body: stored}, nil
	})
}
