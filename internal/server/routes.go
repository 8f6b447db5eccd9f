package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/planbeam/planbeam/internal/api/v1"
	"github.com/planbeam/planbeam/internal/config"
	"github.com/planbeam/planbeam/internal/store/memory"
)

func registerAPIRoutes(api huma.API, store *memory.Store, cfg *config.Config) {
	v1.RegisterScheduleRoutes(api, store)
	v1.RegisterTaskRoutes(api, store)
	v1.RegisterTeamRoutes(api, store)
	v1.RegisterViewRoutes(api, store, cfg.Capacity.DefaultWeeks)
}
