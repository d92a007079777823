package emulator

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/goccy/go-json"
	"github.com/navikt/nada-tablesync/pkg/tables"
	"github.com/rs/zerolog"
)

type apiError struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Emulator is an in-memory stand-in for the Tables API, serving the
// subset of endpoints the client uses.
type Emulator struct {
	router *chi.Mux

	mu      sync.Mutex
	tables  []*tables.Table
	rows    map[string][]*tables.Row
	updates []*tables.Row

	pageSize int

	errStatus  int
	errMessage string
	err        error

	now func() time.Time

	log zerolog.Logger

	server *httptest.Server
}

func New(log zerolog.Logger) *Emulator {
	e := &Emulator{
		router:   chi.NewRouter(),
		rows:     map[string][]*tables.Row{},
		pageSize: tables.PageSize,
		now:      time.Now,
		log:      log,
	}

	e.routes()

	return e
}

func (e *Emulator) routes() {
	e.router.Get("/tables", e.listTables)
	e.router.Get("/tables/{table}", e.getTable)
	e.router.Get("/tables/{table}/rows", e.listRows)
	e.router.Patch("/tables/{table}/rows/{row}", e.updateRow)

	e.router.NotFound(e.notFound)
}

func (e *Emulator) Run() string {
	e.log.Info().Msg("starting tables emulator")

	e.server = httptest.NewServer(e)

	return e.server.URL
}

func (e *Emulator) Close() {
	if e.server != nil {
		e.server.Close()
	}
}

func (e *Emulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.router.ServeHTTP(w, r)
}

func (e *Emulator) SetTable(table *tables.Table, rows ...*tables.Row) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, t := range e.tables {
		if t.Name == table.Name {
			e.tables = append(e.tables[:i], e.tables[i+1:]...)
			break
		}
	}

	e.tables = append(e.tables, table)
	e.rows[table.Name] = rows
}

// SetPageSize changes how many items a page holds, regardless of what the
// client asks for.
func (e *Emulator) SetPageSize(size int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pageSize = size
}

// SetError makes the next request fail with a plain text 500.
func (e *Emulator) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.err = err
}

// SetAPIError makes the next request fail with a structured API error.
// An empty message writes an empty body.
func (e *Emulator) SetAPIError(status int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errStatus = status
	e.errMessage = message
}

func (e *Emulator) SetNow(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.now = now
}

// Updates returns the update requests received, in arrival order.
func (e *Emulator) Updates() []*tables.Row {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]*tables.Row(nil), e.updates...)
}

func (e *Emulator) Rows(table string) []*tables.Row {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]*tables.Row(nil), e.rows[table]...)
}

func (e *Emulator) failed(w http.ResponseWriter) bool {
	if e.err != nil {
		http.Error(w, e.err.Error(), http.StatusInternalServerError)
		e.err = nil

		return true
	}

	if e.errStatus != 0 {
		status := e.errStatus
		message := e.errMessage
		e.errStatus = 0
		e.errMessage = ""

		w.WriteHeader(status)

		if message != "" {
			_ = json.NewEncoder(w).Encode(apiError{
				Error: apiErrorBody{
					Code:    status,
					Message: message,
					Status:  http.StatusText(status),
				},
			})
		}

		return true
	}

	return false
}

func (e *Emulator) listTables(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed(w) {
		return
	}

	start, end, next, err := e.page(r, len(e.tables))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	e.writeJSON(w, map[string]any{
		"tables":        e.tables[start:end],
		"nextPageToken": next,
	})
}

func (e *Emulator) getTable(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed(w) {
		return
	}

	name := "tables/" + chi.URLParam(r, "table")

	for _, t := range e.tables {
		if t.Name == name {
			e.writeJSON(w, t)

			return
		}
	}

	e.writeAPIError(w, http.StatusNotFound, fmt.Sprintf("table %s not found", name))
}

func (e *Emulator) listRows(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed(w) {
		return
	}

	name := "tables/" + chi.URLParam(r, "table")

	rows, ok := e.rows[name]
	if !ok {
		e.writeAPIError(w, http.StatusNotFound, fmt.Sprintf("table %s not found", name))

		return
	}

	if r.URL.Query().Get("view") != tables.ColumnIDView {
		e.writeAPIError(w, http.StatusBadRequest, "only COLUMN_ID_VIEW is supported")

		return
	}

	start, end, next, err := e.page(r, len(rows))
	if err != nil {
		e.writeAPIError(w, http.StatusBadRequest, err.Error())

		return
	}

	e.writeJSON(w, &tables.RowsPage{
		Rows:          rows[start:end],
		NextPageToken: next,
	})
}

func (e *Emulator) updateRow(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed(w) {
		return
	}

	tableName := "tables/" + chi.URLParam(r, "table")
	rowName := tableName + "/rows/" + chi.URLParam(r, "row")

	update := &tables.Row{}

	err := json.NewDecoder(r.Body).Decode(update)
	if err != nil {
		e.writeAPIError(w, http.StatusBadRequest, err.Error())

		return
	}

	e.updates = append(e.updates, update)

	for _, row := range e.rows[tableName] {
		if row.Name != rowName {
			continue
		}

		if row.Values == nil {
			row.Values = map[string]any{}
		}

		for k, v := range update.Values {
			row.Values[k] = v
		}

		row.UpdateTime = e.now().UTC().Format(time.RFC3339Nano)

		e.writeJSON(w, row)

		return
	}

	e.writeAPIError(w, http.StatusNotFound, fmt.Sprintf("row %s not found", rowName))
}

func (e *Emulator) page(r *http.Request, total int) (int, int, string, error) {
	start := 0

	if token := r.URL.Query().Get("pageToken"); token != "" {
		var err error

		start, err = strconv.Atoi(token)
		if err != nil || start < 0 || start > total {
			return 0, 0, "", fmt.Errorf("invalid page token %q", token)
		}
	}

	end := start + e.pageSize
	if end >= total {
		return start, total, "", nil
	}

	return start, end, strconv.Itoa(end), nil
}

func (e *Emulator) writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(apiError{
		Error: apiErrorBody{
			Code:    status,
			Message: message,
			Status:  http.StatusText(status),
		},
	})
}

func (e *Emulator) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		e.log.Error().Err(err).Msg("encoding response")
	}
}

func (e *Emulator) notFound(w http.ResponseWriter, r *http.Request) {
	request, err := httputil.DumpRequest(r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	e.log.Warn().Str("request", string(request)).Msg("not found")

	http.Error(w, "not found", http.StatusNotFound)
}
