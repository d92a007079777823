package core

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/navikt/nada-tablesync/pkg/convert"
	"github.com/navikt/nada-tablesync/pkg/cs"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/service"
	"github.com/rs/zerolog"
)

var _ service.SnapshotService = &snapshotService{}

type snapshotService struct {
	tablesService service.TablesService
	storage       cs.Operations
	now           func() time.Time
	log           zerolog.Logger
}

func (s *snapshotService) TakeSnapshot(ctx context.Context, tableID, runID string) (*service.SnapshotInfo, error) {
	const op errs.Op = "snapshotService.TakeSnapshot"

	info, err := s.tablesService.GetTable(ctx, tableID)
	if err != nil {
		return nil, errs.E(op, err)
	}

	sch, err := s.tablesService.GetSchema(ctx, tableID)
	if err != nil {
		return nil, errs.E(op, err)
	}

	rows := []convert.SchemaRow{}

	var continuation *service.Continuation

	for {
		page, err := s.tablesService.SyncRows(ctx, tableID, continuation)
		if err != nil {
			return nil, errs.E(op, err)
		}

		rows = append(rows, page.Result...)

		if page.Continuation == nil {
			break
		}

		continuation = page.Continuation
	}

	snapshot := &service.Snapshot{
		RunID:    runID,
		Table:    *info,
		Schema:   sch,
		Rows:     rows,
		SyncedAt: s.now().UTC(),
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, errs.E(errs.Internal, op, err)
	}

	name := objectName(tableID)

	err = s.storage.WriteObject(ctx, name, data, &cs.Attributes{ContentType: "application/json"})
	if err != nil {
		return nil, errs.E(op, err)
	}

	s.log.Info().Str("table", info.Name).Str("run_id", runID).Int("rows", len(rows)).Msg("stored snapshot")

	return &service.SnapshotInfo{
		TableID: snapshotTableID(name),
		Object:  name,
		Size:    int64(len(data)),
		Updated: snapshot.SyncedAt,
	}, nil
}

func (s *snapshotService) ListSnapshots(ctx context.Context) ([]service.SnapshotInfo, error) {
	const op errs.Op = "snapshotService.ListSnapshots"

	objects, err := s.storage.GetObjects(ctx, &cs.Query{Prefix: service.SnapshotPrefix})
	if err != nil {
		return nil, errs.E(op, err)
	}

	infos := make([]service.SnapshotInfo, 0, len(objects))
	for _, obj := range objects {
		infos = append(infos, service.SnapshotInfo{
			TableID: snapshotTableID(obj.Name),
			Object:  obj.Name,
			Size:    obj.Attrs.Size,
			Updated: obj.Updated,
		})
	}

	return infos, nil
}

func (s *snapshotService) GetSnapshot(ctx context.Context, tableID string) (*service.Snapshot, error) {
	const op errs.Op = "snapshotService.GetSnapshot"

	obj, err := s.storage.GetObjectWithData(ctx, objectName(tableID))
	if err != nil {
		return nil, errs.E(op, err)
	}

	snapshot := &service.Snapshot{}

	err = json.Unmarshal(obj.Data, snapshot)
	if err != nil {
		return nil, errs.E(errs.Internal, op, errs.Parameter(obj.Name), err)
	}

	return snapshot, nil
}

func (s *snapshotService) PruneSnapshots(ctx context.Context, keep []string) (int, error) {
	const op errs.Op = "snapshotService.PruneSnapshots"

	kept := make([]string, len(keep))
	for i, id := range keep {
		kept[i] = objectName(id)
	}

	objects, err := s.storage.GetObjects(ctx, &cs.Query{Prefix: service.SnapshotPrefix})
	if err != nil {
		return 0, errs.E(op, err)
	}

	deleted := 0

	for _, obj := range objects {
		if slices.Contains(kept, obj.Name) {
			continue
		}

		n, err := s.storage.DeleteObjects(ctx, &cs.Query{Prefix: obj.Name})
		if err != nil {
			return deleted, errs.E(op, err)
		}

		s.log.Info().Str("object", obj.Name).Msg("pruned snapshot")

		deleted += n
	}

	return deleted, nil
}

func objectName(tableID string) string {
	return service.SnapshotPrefix + strings.TrimPrefix(tableID, "tables/") + ".json"
}

func snapshotTableID(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, service.SnapshotPrefix), ".json")
}

func NewSnapshotService(tablesService service.TablesService, storage cs.Operations, log zerolog.Logger) *snapshotService {
	return &snapshotService{
		tablesService: tablesService,
		storage:       storage,
		now:           time.Now,
		log:           log,
	}
}
