package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/planbeam/planbeam/internal/directory"
	"github.com/planbeam/planbeam/internal/schedule"
	"github.com/planbeam/planbeam/internal/store/memory"
)

// ScheduleStore abstracts the project-schedule registry for handler
// testing. *memory.Store satisfies this interface.
type ScheduleStore interface {
	Replace(projectID uuid.UUID, g *schedule.Graph)
	SetTeam(projectID uuid.UUID, members []schedule.Resource)
	Mutate(projectID uuid.UUID, fn func(g *schedule.Graph, team *directory.Directory) error) error
	View(projectID uuid.UUID, fn func(g *schedule.Graph, team *directory.Directory) error) error
	Snapshot() []schedule.ProjectGraph
	Resolver() directory.Resolver
}

// mapEngineError translates store and engine errors to HTTP errors.
// Validation failures map to 422: the request parsed fine but the
// schedule semantics reject it, and the graph is left untouched.
func mapEngineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, memory.ErrProjectNotFound):
		return huma.Error404NotFound("project has no loaded schedule")
	case errors.Is(err, schedule.ErrTaskNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, schedule.ErrMalformedInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidDuration),
		errors.Is(err, schedule.ErrDanglingParent),
		errors.Is(err, schedule.ErrParentCycle),
		errors.Is(err, schedule.ErrDanglingLink),
		errors.Is(err, schedule.ErrUnknownKind),
		errors.Is(err, schedule.ErrResourceMismatch),
		errors.Is(err, schedule.ErrInvalidAlloc),
		errors.Is(err, schedule.ErrBaselineSlot),
		errors.Is(err, schedule.ErrDuplicateTaskID):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("schedule operation failed", err)
	}
}
