package core

import "github.com/navikt/nada-tablesync/pkg/service"

type Services struct {
	TablesService   service.TablesService
	SnapshotService service.SnapshotService
}

func NewServices(tablesService service.TablesService, snapshotService service.SnapshotService) *Services {
	return &Services{
		TablesService:   tablesService,
		SnapshotService: snapshotService,
	}
}
