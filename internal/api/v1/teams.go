package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/planbeam/planbeam/internal/directory"
	"github.com/planbeam/planbeam/internal/schedule"
)

type SetTeamInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
	Body      struct {
		Members []schedule.Resource `json:"members"`
	}
}

type SetTeamOutput struct {
	Body struct {
		Members int `json:"members"`
	}
}

type GetTeamInput struct {
	ProjectID uuid.UUID `path:"projectID" doc:"Project ID"`
}

type GetTeamOutput struct {
	Body struct {
		Members []schedule.Resource `json:"members"`
	}
}

// Team routes manage the per-project roster the import reconciler and
// the capacity fallback resolve names against. The engine itself never
// mutates resources; this is collaborator-owned data.
func RegisterTeamRoutes(api huma.API, store ScheduleStore) {
	huma.Register(api, huma.Operation{
		OperationID: "set-team",
		Method:      http.MethodPut,
		Path:        "/projects/{projectID}/team",
		Summary:     "Replace a project's team roster",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, input *SetTeamInput) (*SetTeamOutput, error) {
		store.SetTeam(input.ProjectID, input.Body.Members)
		out := &SetTeamOutput{}
		out.Body.Members = len(input.Body.Members)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-team",
		Method:      http.MethodGet,
		Path:        "/projects/{projectID}/team",
		Summary:     "List a project's team roster",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, input *GetTeamInput) (*GetTeamOutput, error) {
		out := &GetTeamOutput{}
		err := store.View(input.ProjectID, func(_ *schedule.Graph, team *directory.Directory) error {
			out.Body.Members = team.Members()
			return nil
		})
		if err != nil {
			return nil, mapEngineError(err)
		}
		if out.Body.Members == nil {
			out.Body.Members = []schedule.Resource{}
		}
		return out, nil
	})
}
