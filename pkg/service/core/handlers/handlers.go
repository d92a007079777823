package handlers

import (
	"github.com/navikt/nada-tablesync/pkg/service/core"
)

type Handlers struct {
	TablesHandler    *TablesHandler
	SnapshotsHandler *SnapshotsHandler
}

func NewHandlers(s *core.Services) *Handlers {
	return &Handlers{
		TablesHandler:    NewTablesHandler(s.TablesService),
		SnapshotsHandler: NewSnapshotsHandler(s.SnapshotService),
	}
}
