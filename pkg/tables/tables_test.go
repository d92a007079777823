package tables_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/navikt/nada-tablesync/pkg/cache"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/tables"
	"github.com/navikt/nada-tablesync/pkg/tables/emulator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectsTable() *tables.Table {
	return &tables.Table{
		Name:        "tables/projects",
		DisplayName: "Projects",
		TimeZone:    "Europe/Oslo",
		Columns: []*tables.Column{
			{ID: "c1", Name: "Title", DataType: tables.DataTypeText},
			{ID: "c2", Name: "Due", DataType: tables.DataTypeDate, DateDetails: &tables.DateDetails{HasTime: false}},
		},
	}
}

func projectRows() []*tables.Row {
	return []*tables.Row{
		{Name: "tables/projects/rows/r1", Values: map[string]any{"c1": "first"}},
		{Name: "tables/projects/rows/r2", Values: map[string]any{"c1": "second"}},
		{Name: "tables/projects/rows/r3", Values: map[string]any{"c1": "third"}},
	}
}

func TestClient_ListTables(t *testing.T) {
	log := zerolog.New(zerolog.NewConsoleWriter())
	em := emulator.New(log)
	url := em.Run()
	defer em.Close()

	em.SetPageSize(1)
	em.SetTable(projectsTable())
	em.SetTable(&tables.Table{Name: "tables/people", DisplayName: "People"})

	client := tables.New(url, "", http.DefaultClient)

	got, err := client.ListTables(context.Background())
	require.NoError(t, err)

	var names []string
	for _, tbl := range got {
		names = append(names, tbl.Name)
	}

	assert.Equal(t, []string{"tables/projects", "tables/people"}, names)
}

func TestClient_GetTable(t *testing.T) {
	log := zerolog.New(zerolog.NewConsoleWriter())
	em := emulator.New(log)

	testCases := []struct {
		name      string
		table     string
		fn        func(*emulator.Emulator)
		expect    *tables.Table
		expectErr string
		kind      errs.Kind
	}{
		{
			name:   "Existing table",
			table:  "tables/projects",
			expect: projectsTable(),
		},
		{
			name:      "Missing table",
			table:     "tables/nope",
			expectErr: "table tables/nope not found",
			kind:      errs.NotExist,
		},
		{
			name:  "Server failure",
			table: "tables/projects",
			fn: func(em *emulator.Emulator) {
				em.SetError(fmt.Errorf("oops"))
			},
			expectErr: "unexpected status code: 500",
			kind:      errs.IO,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			url := em.Run()
			defer em.Close()

			em.SetTable(projectsTable())

			if tc.fn != nil {
				tc.fn(em)
			}

			client := tables.New(url, "", http.DefaultClient)

			got, err := client.GetTable(context.Background(), tc.table)
			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectErr, err.Error())
				assert.True(t, errs.KindIs(tc.kind, err))

				return
			}

			require.NoError(t, err)

			diff := cmp.Diff(tc.expect, got)
			assert.Empty(t, diff)
		})
	}
}

func TestClient_ListRows(t *testing.T) {
	log := zerolog.New(zerolog.NewConsoleWriter())
	em := emulator.New(log)
	url := em.Run()
	defer em.Close()

	em.SetPageSize(2)
	em.SetTable(projectsTable(), projectRows()...)

	client := tables.New(url, "", http.DefaultClient)

	first, err := client.ListRows(context.Background(), "tables/projects", "")
	require.NoError(t, err)
	assert.Len(t, first.Rows, 2)
	assert.Equal(t, "2", first.NextPageToken)

	second, err := client.ListRows(context.Background(), "tables/projects", first.NextPageToken)
	require.NoError(t, err)
	require.Len(t, second.Rows, 1)
	assert.Equal(t, "tables/projects/rows/r3", second.Rows[0].Name)
	assert.Empty(t, second.NextPageToken)
}

func TestClient_UpdateRow(t *testing.T) {
	log := zerolog.New(zerolog.NewConsoleWriter())
	em := emulator.New(log)

	testCases := []struct {
		name      string
		row       *tables.Row
		fn        func(*emulator.Emulator)
		expect    map[string]any
		expectErr string
		kind      errs.Kind
	}{
		{
			name: "Update value",
			row: &tables.Row{
				Name:   "tables/projects/rows/r1",
				Values: map[string]any{"c1": "renamed"},
			},
			expect: map[string]any{"c1": "renamed"},
		},
		{
			name: "Unauthenticated",
			row: &tables.Row{
				Name:   "tables/projects/rows/r1",
				Values: map[string]any{"c1": "renamed"},
			},
			fn: func(em *emulator.Emulator) {
				em.SetAPIError(http.StatusUnauthorized, "token expired")
			},
			expectErr: "unexpected status code: 401",
			kind:      errs.Unauthenticated,
		},
		{
			name: "Rejected with message",
			row: &tables.Row{
				Name:   "tables/projects/rows/r1",
				Values: map[string]any{"c2": "nope"},
			},
			fn: func(em *emulator.Emulator) {
				em.SetAPIError(http.StatusBadRequest, "Invalid value for column c2")
			},
			expectErr: "Invalid value for column c2",
			kind:      errs.InvalidRequest,
		},
		{
			name: "Rejected without message",
			row: &tables.Row{
				Name:   "tables/projects/rows/r1",
				Values: map[string]any{"c1": "renamed"},
			},
			fn: func(em *emulator.Emulator) {
				em.SetAPIError(http.StatusBadGateway, "")
			},
			expectErr: "unexpected status code: 502",
			kind:      errs.IO,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			url := em.Run()
			defer em.Close()

			em.SetTable(projectsTable(), projectRows()...)

			if tc.fn != nil {
				tc.fn(em)
			}

			client := tables.New(url, "", http.DefaultClient)

			got, err := client.UpdateRow(context.Background(), tc.row)
			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectErr, err.Error())
				assert.True(t, errs.KindIs(tc.kind, err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.row.Name, got.Name)
			assert.Equal(t, tc.expect, got.Values)
			assert.NotEmpty(t, got.UpdateTime)
		})
	}
}

func TestClient_URLs(t *testing.T) {
	client := tables.New("https://example.com/v1/", "", http.DefaultClient)

	assert.Equal(t, "https://example.com/v1/tables/abc", client.TableURL("tables/abc"))
	assert.Equal(t, "https://tables.area120.google.com/table/abc", client.DisplayURL("tables/abc"))
}

func TestCachedClient_GetTable(t *testing.T) {
	log := zerolog.New(zerolog.NewConsoleWriter())
	em := emulator.New(log)
	url := em.Run()
	defer em.Close()

	em.SetTable(projectsTable())

	memory := cache.NewMemory(0, log)
	client := tables.NewCachedClient(tables.New(url, "", http.DefaultClient), memory)

	first, err := client.GetTable(context.Background(), "tables/projects")
	require.NoError(t, err)

	// A failing upstream is never reached on a cache hit.
	em.SetError(fmt.Errorf("oops"))

	second, err := client.GetTable(context.Background(), "tables/projects")
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Equal(t, cache.Statistics{TotalRequests: 2, TotalHits: 1, TotalMisses: 1}, memory.Stats())
}
