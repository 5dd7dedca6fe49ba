package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/crvs/internal/api/v1"
	"github.com/gosuda/crvs/internal/api/ws"
)

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterRecordRoutes(api, deps.Records, deps.History)
	v1.RegisterActionRoutes(api, deps.Records)
	v1.RegisterCorrectionRoutes(api, deps.Corrections)
	v1.RegisterEncounterRoutes(api, deps.Supporting)
	v1.RegisterPractitionerRoutes(api, deps.Practitioners)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/records", hub.ServeRecords)
	r.Get("/records/{id}", hub.ServeRecord)
}
