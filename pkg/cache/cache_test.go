//go:build integration_test

package cache_test

import (
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/navikt/nada-tablesync/pkg/cache"
	"github.com/navikt/nada-tablesync/pkg/database"
	"github.com/ory/dockertest/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

var dbString string

func TestMain(m *testing.M) {
	dockerHost := os.Getenv("HOME") + "/.colima/docker.sock"
	_, err := os.Stat(dockerHost)
	if err != nil {
		// uses a sensible default on windows (tcp/http) and linux/osx (socket)
		dockerHost = ""
	} else {
		dockerHost = "unix://" + dockerHost
	}

	pool, err := dockertest.NewPool(dockerHost)
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	resource, err := pool.Run("postgres", "14", []string{"POSTGRES_PASSWORD=postgres", "POSTGRES_DB=tablesync"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}

	// the database in the container might not accept connections yet
	if err := pool.Retry(func() error {
		dbString = "user=postgres dbname=tablesync sslmode=disable password=postgres host=localhost port=" + resource.GetPort("5432/tcp")

		db, err := sql.Open("postgres", dbString)
		if err != nil {
			return err
		}
		defer db.Close()

		return db.Ping()
	}); err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	code := m.Run()

	// os.Exit skips deferred calls
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}

	os.Exit(code)
}

type descriptor struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

func newDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(dbString, 2, 2, zerolog.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestMigrate(t *testing.T) {
	db := newDB(t)

	err := database.Migrate(db, zerolog.Nop())
	require.NoError(t, err)

	var version int64
	err = db.QueryRow(`SELECT max(version_id) FROM goose_db_version`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = db.Exec(`SELECT endpoint, response_body, created_at, last_tried_update_at FROM http_cache LIMIT 1`)
	require.NoError(t, err)
}

func TestClient(t *testing.T) {
	c := cache.New(time.Hour, newDB(t), zerolog.Nop())

	got := descriptor{}
	assert.False(t, c.Get("tables/missing", &got))

	expect := descriptor{Name: "tables/tasks", Columns: []string{"title", "done"}}
	c.Set("tables/tasks", expect)

	require.True(t, c.Get("tables/tasks", &got))
	assert.Equal(t, expect, got)

	updated := descriptor{Name: "tables/tasks", Columns: []string{"title"}}
	c.Set("tables/tasks", updated)

	require.True(t, c.Get("tables/tasks", &got))
	assert.Equal(t, updated, got)

	var wrongType int
	assert.False(t, c.Get("tables/tasks", &wrongType))

	assert.Equal(t, cache.Statistics{
		TotalRequests: 4,
		TotalHits:     2,
		TotalMisses:   2,
	}, c.Stats())
}

func TestClient_Expired(t *testing.T) {
	c := cache.New(time.Millisecond, newDB(t), zerolog.Nop())

	c.Set("tables/expiring", descriptor{Name: "tables/expiring"})

	time.Sleep(10 * time.Millisecond)

	got := descriptor{}
	assert.False(t, c.Get("tables/expiring", &got))
	assert.Equal(t, cache.Statistics{TotalRequests: 1, TotalMisses: 1}, c.Stats())
}
