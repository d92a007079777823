package cs_test

import (
	"context"
	"testing"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/navikt/nada-tablesync/pkg/cs"
	"github.com/navikt/nada-tablesync/pkg/cs/emulator"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucket = "snapshots-bucket"

func object(name, content string) fakestorage.Object {
	return fakestorage.Object{
		ObjectAttrs: fakestorage.ObjectAttrs{
			BucketName:  bucket,
			Name:        name,
			ContentType: "application/json",
		},
		Content: []byte(content),
	}
}

func TestClient_WriteObject(t *testing.T) {
	testCases := []struct {
		name   string
		object string
		data   []byte
		attrs  *cs.Attributes
		expect fakestorage.Object
	}{
		{
			name:   "write object",
			object: "snapshots/tasks.json",
			data:   []byte("inside the file"),
			expect: fakestorage.Object{
				ObjectAttrs: fakestorage.ObjectAttrs{
					BucketName:  bucket,
					Name:        "snapshots/tasks.json",
					Size:        15,
					ContentType: "text/plain; charset=utf-8",
				},
				Content: []byte("inside the file"),
			},
		},
		{
			name:   "write object with attrs",
			object: "snapshots/tasks.json",
			data:   []byte("{}"),
			attrs: &cs.Attributes{
				ContentType:     "application/json",
				ContentEncoding: "utf-8",
			},
			expect: fakestorage.Object{
				ObjectAttrs: fakestorage.ObjectAttrs{
					BucketName:      bucket,
					Name:            "snapshots/tasks.json",
					Size:            2,
					ContentType:     "application/json",
					ContentEncoding: "utf-8",
				},
				Content: []byte("{}"),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := emulator.New(t)
			e.CreateBucket(bucket)

			client := cs.NewFromClient(bucket, e.Client())

			err := client.WriteObject(context.Background(), tc.object, tc.data, tc.attrs)
			require.NoError(t, err)

			got := e.GetObject(bucket, tc.object)
			diff := cmp.Diff(tc.expect, got,
				cmpopts.IgnoreFields(fakestorage.ObjectAttrs{},
					"Crc32c",
					"Md5Hash",
					"Etag",
					"ACL",
					"Created",
					"Updated",
					"Generation",
				))
			assert.Empty(t, diff)
		})
	}
}

func TestClient_GetObjects(t *testing.T) {
	e := emulator.New(t,
		object("snapshots/a.json", "{}"),
		object("snapshots/b.json", `{"rows":[]}`),
		object("other/c.json", "{}"),
	)

	client := cs.NewFromClient(bucket, e.Client())

	got, err := client.GetObjects(context.Background(), &cs.Query{Prefix: "snapshots/"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"snapshots/a.json", "snapshots/b.json"}, names)

	for _, obj := range got {
		assert.Equal(t, bucket, obj.Bucket)
		assert.Equal(t, "application/json", obj.Attrs.ContentType)
	}

	all, err := client.GetObjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = cs.NewFromClient("missing-bucket", e.Client()).GetObjects(context.Background(), nil)
	require.Error(t, err)
}

func TestClient_GetObjectWithData(t *testing.T) {
	e := emulator.New(t, object("snapshots/a.json", `{"rows":[]}`))

	client := cs.NewFromClient(bucket, e.Client())

	got, err := client.GetObjectWithData(context.Background(), "snapshots/a.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"rows":[]}`), got.Data)
	assert.Equal(t, "snapshots/a.json", got.Name)
	assert.Equal(t, int64(11), got.Attrs.Size)

	_, err = client.GetObjectWithData(context.Background(), "snapshots/missing.json")
	require.Error(t, err)
	assert.True(t, errs.KindIs(errs.NotExist, err))
}

func TestClient_DeleteObjects(t *testing.T) {
	e := emulator.New(t,
		object("snapshots/a.json", "{}"),
		object("snapshots/b.json", "{}"),
		object("other/c.json", "{}"),
	)

	client := cs.NewFromClient(bucket, e.Client())

	n, err := client.DeleteObjects(context.Background(), &cs.Query{Prefix: "snapshots/a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"other/c.json", "snapshots/b.json"}, e.ObjectNames(bucket))

	n, err = client.DeleteObjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, e.ObjectNames(bucket))
}
