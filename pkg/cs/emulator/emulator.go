// Package emulator runs an in-process fake of Google Cloud Storage for tests.
package emulator

import (
	"net"
	"sort"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/fsouza/fake-gcs-server/fakestorage"
)

type Emulator struct {
	server *fakestorage.Server
	t      *testing.T
}

// New starts the fake server with the given objects, the server is
// stopped when the test ends.
func New(t *testing.T, initialObjects ...fakestorage.Object) *Emulator {
	t.Helper()

	server, err := fakestorage.NewServerWithOptions(fakestorage.Options{
		InitialObjects: initialObjects,
		Scheme:         "http",
		Host:           "localhost",
		Port:           freePort(t),
	})
	if err != nil {
		t.Fatalf("creating fake storage server: %v", err)
	}

	t.Cleanup(server.Stop)

	return &Emulator{
		t:      t,
		server: server,
	}
}

func freePort(t *testing.T) uint16 {
	t.Helper()

	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("getting free port: %v", err)
	}
	defer l.Close()

	return uint16(l.Addr().(*net.TCPAddr).Port)
}

func (e *Emulator) CreateBucket(name string) {
	e.server.CreateBucketWithOpts(fakestorage.CreateBucketOpts{
		Name: name,
	})
}

// ObjectNames returns the sorted names of all objects in bucket.
func (e *Emulator) ObjectNames(bucket string) []string {
	objs, _, err := e.server.ListObjectsWithOptions(bucket, fakestorage.ListOptions{})
	if err != nil {
		e.t.Fatalf("getting objects in bucket %s: %v", bucket, err)
	}

	out := make([]string, len(objs))
	for i, obj := range objs {
		out[i] = obj.Name
	}

	sort.Strings(out)

	return out
}

func (e *Emulator) GetObject(bucket, name string) fakestorage.Object {
	obj, err := e.server.GetObject(bucket, name)
	if err != nil {
		e.t.Fatalf("getting object %s/%s: %v", bucket, name, err)
	}

	return obj
}

func (e *Emulator) Client() *storage.Client {
	return e.server.Client()
}
