package core_test

import (
	"context"
	"testing"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/navikt/nada-tablesync/pkg/convert"
	"github.com/navikt/nada-tablesync/pkg/cs"
	csemulator "github.com/navikt/nada-tablesync/pkg/cs/emulator"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/service"
	"github.com/navikt/nada-tablesync/pkg/service/core"
	"github.com/navikt/nada-tablesync/pkg/tables"
	"github.com/navikt/nada-tablesync/pkg/tables/emulator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotBucket = "tablesync-snapshots"

func newSnapshotService(t *testing.T, em *emulator.Emulator, objects ...fakestorage.Object) (service.SnapshotService, *csemulator.Emulator) {
	t.Helper()

	gcs := csemulator.New(t, objects...)
	if len(objects) == 0 {
		gcs.CreateBucket(snapshotBucket)
	}

	svc := core.NewSnapshotService(
		newService(t, em),
		cs.NewFromClient(snapshotBucket, gcs.Client()),
		zerolog.Nop(),
	)

	return svc, gcs
}

func TestSnapshotService_TakeAndGet(t *testing.T) {
	em := emulator.New(zerolog.Nop())
	em.SetPageSize(1)
	em.SetTable(tasksTable(),
		&tables.Row{Name: "tables/tasks/rows/a", Values: map[string]any{"title": "one"}},
		&tables.Row{Name: "tables/tasks/rows/b", Values: map[string]any{"title": "two"}},
		&tables.Row{Name: "tables/tasks/rows/c", Values: map[string]any{"title": "three"}},
	)

	svc, gcs := newSnapshotService(t, em)

	info, err := svc.TakeSnapshot(context.Background(), "tables/tasks", "run-1")
	require.NoError(t, err)
	assert.Equal(t, "tasks", info.TableID)
	assert.Equal(t, "snapshots/tasks.json", info.Object)
	assert.Equal(t, []string{"snapshots/tasks.json"}, gcs.ObjectNames(snapshotBucket))

	got, err := svc.GetSnapshot(context.Background(), "tasks")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "tables/tasks", got.Table.Name)
	assert.Contains(t, got.Schema.Properties, "Title")
	assert.False(t, got.SyncedAt.IsZero())
	require.Len(t, got.Rows, 3)
	assert.Equal(t, convert.SchemaRow{"name": "tables/tasks/rows/c", "rowLabel": "3", "title": "three"}, got.Rows[2])

	list, err := svc.ListSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "tasks", list[0].TableID)
	assert.Equal(t, info.Size, list[0].Size)
}

func TestSnapshotService_GetMissing(t *testing.T) {
	svc, _ := newSnapshotService(t, emulator.New(zerolog.Nop()))

	_, err := svc.GetSnapshot(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errs.KindIs(errs.NotExist, err))
}

func TestSnapshotService_PruneSnapshots(t *testing.T) {
	object := func(name string) fakestorage.Object {
		return fakestorage.Object{
			ObjectAttrs: fakestorage.ObjectAttrs{BucketName: snapshotBucket, Name: name},
			Content:     []byte("{}"),
		}
	}

	svc, gcs := newSnapshotService(t, emulator.New(zerolog.Nop()),
		object("snapshots/tasks.json"),
		object("snapshots/budget.json"),
		object("snapshots/retired.json"),
		object("exports/retired.json"),
	)

	n, err := svc.PruneSnapshots(context.Background(), []string{"tables/tasks", "budget"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"exports/retired.json", "snapshots/budget.json", "snapshots/tasks.json"}, gcs.ObjectNames(snapshotBucket))
}
