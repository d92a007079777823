package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/navikt/nada-tablesync/pkg/service/core/handlers"
	"github.com/navikt/nada-tablesync/pkg/service/core/transport"
	"github.com/rs/zerolog"
)

type TablesEndpoints struct {
	ListTables         http.HandlerFunc
	GetTable           http.HandlerFunc
	GetSchema          http.HandlerFunc
	GetPropertyOptions http.HandlerFunc
	SyncRows           http.HandlerFunc
	UpdateRows         http.HandlerFunc
}

func NewTablesEndpoints(log zerolog.Logger, h *handlers.TablesHandler) *TablesEndpoints {
	return &TablesEndpoints{
		ListTables:         transport.For(h.ListTables).Build(log),
		GetTable:           transport.For(h.GetTable).Build(log),
		GetSchema:          transport.For(h.GetSchema).Build(log),
		GetPropertyOptions: transport.For(h.GetPropertyOptions).Build(log),
		SyncRows:           transport.For(h.SyncRows).Build(log),
		UpdateRows:         transport.For(h.UpdateRows).RequestFromJSON().Build(log),
	}
}

func NewTablesRoutes(endpoints *TablesEndpoints) AddRoutesFn {
	return func(router chi.Router) {
		router.Route("/api/tables", func(r chi.Router) {
			r.Get("/", endpoints.ListTables)
			r.Get("/{id}", endpoints.GetTable)
			r.Get("/{id}/schema", endpoints.GetSchema)
			r.Get("/{id}/columns/{column}/options", endpoints.GetPropertyOptions)
			r.Get("/{id}/rows", endpoints.SyncRows)
			r.Post("/{id}/rows/update", endpoints.UpdateRows)
		})
	}
}
