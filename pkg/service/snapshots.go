package service

import (
	"context"
	"time"

	"github.com/navikt/nada-tablesync/pkg/convert"
	"github.com/navikt/nada-tablesync/pkg/schema"
)

const SnapshotPrefix = "snapshots/"

type SnapshotService interface {
	// TakeSnapshot reads every row of the table and stores them together
	// with the table schema, replacing the previous snapshot.
	TakeSnapshot(ctx context.Context, tableID, runID string) (*SnapshotInfo, error)
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)
	GetSnapshot(ctx context.Context, tableID string) (*Snapshot, error)
	// PruneSnapshots deletes the snapshots of tables not in keep.
	PruneSnapshots(ctx context.Context, keep []string) (int, error)
}

type Snapshot struct {
	RunID    string              `json:"runId"`
	Table    TableInfo           `json:"table"`
	Schema   *schema.Schema      `json:"schema"`
	Rows     []convert.SchemaRow `json:"rows"`
	SyncedAt time.Time           `json:"syncedAt"`
}

type SnapshotInfo struct {
	TableID string    `json:"tableId"`
	Object  string    `json:"object"`
	Size    int64     `json:"size"`
	Updated time.Time `json:"updated"`
}
