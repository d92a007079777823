package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/nada-tablesync/pkg/service/core/handlers"
	"github.com/navikt/nada-tablesync/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type SnapshotsEndpoints struct {
	ListSnapshots http.HandlerFunc
	GetSnapshot   http.HandlerFunc
	TakeSnapshot  http.HandlerFunc
}

func NewSnapshotsEndpoints(log zerolog.Logger, h *handlers.SnapshotsHandler) *SnapshotsEndpoints {
	return &SnapshotsEndpoints{
		ListSnapshots: transport.For(h.ListSnapshots).Build(log),
		GetSnapshot:   transport.For(h.GetSnapshot).Build(log),
		TakeSnapshot:  transport.For(h.TakeSnapshot).Build(log),
	}
}

func NewSnapshotsRoutes(endpoints *SnapshotsEndpoints) AddRoutesFn {
	return func(router chi.Router) {
		router.Route("/api/snapshots", func(r chi.Router) {
			r.Get("/", endpoints.ListSnapshots)
			r.Get("/{id}", endpoints.GetSnapshot)
			r.Post("/{id}", endpoints.TakeSnapshot)
		})
	}
}
