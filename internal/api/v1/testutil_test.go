package v1_test

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	v1 "github.com/planbeam/planbeam/internal/api/v1"
	"github.com/planbeam/planbeam/internal/store/memory"
)

const testDefaultWeeks = 12

// newTestAPI wires every route group against a real in-memory store;
// the engine has no external dependencies worth mocking.
func newTestAPI(t *testing.T) (humatest.TestAPI, *memory.Store) {
	t.Helper()

	_, api := humatest.New(t)
	store := memory.New()
	v1.RegisterScheduleRoutes(api, store)
	v1.RegisterTaskRoutes(api, store)
	v1.RegisterTeamRoutes(api, store)
	v1.RegisterViewRoutes(api, store, testDefaultWeeks)
	return api, store
}

// sampleDocument is a two-task plan starting Monday 2024-01-08 with one
// finish-to-start link into a milestone.
func sampleDocument() map[string]any {
	return map[string]any{
		"data": []map[string]any{
			{
				"id":            1,
				"name":          "Build",
				"kind":          "task",
				"start_date":    "2024-01-08T00:00:00Z",
				"duration_days": 3,
				"progress":      0.5,
				"cost_code":     "CC-17",
			},
			{
				"id":         2,
				"name":       "Ship",
				"kind":       "milestone",
				"start_date": "2024-01-11T00:00:00Z",
			},
		},
		"links": []map[string]any{
			{"id": 1, "source": 1, "target": 2, "type": "finish-to-start"},
		},
	}
}

func loadSchedule(t *testing.T, api humatest.TestAPI, projectID uuid.UUID, doc map[string]any) {
	t.Helper()

	resp := api.Put("/projects/"+projectID.String()+"/schedule", doc)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
