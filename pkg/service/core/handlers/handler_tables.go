package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/schema"
	"github.com/navikt/nada-tablesync/pkg/service"
)

type TablesHandler struct {
	tablesService service.TablesService
}

func (h *TablesHandler) ListTables(ctx context.Context, r *http.Request, _ any) ([]service.TableOption, error) {
	return h.tablesService.ListTables(ctx, r.URL.Query().Get("q"))
}

func (h *TablesHandler) GetTable(ctx context.Context, _ *http.Request, _ any) (*service.TableInfo, error) {
	return h.tablesService.GetTable(ctx, chi.URLParamFromCtx(ctx, "id"))
}

func (h *TablesHandler) GetSchema(ctx context.Context, _ *http.Request, _ any) (*schema.Schema, error) {
	return h.tablesService.GetSchema(ctx, chi.URLParamFromCtx(ctx, "id"))
}

func (h *TablesHandler) GetPropertyOptions(ctx context.Context, _ *http.Request, _ any) ([]string, error) {
	return h.tablesService.GetPropertyOptions(ctx, chi.URLParamFromCtx(ctx, "id"), chi.URLParamFromCtx(ctx, "column"))
}

func (h *TablesHandler) SyncRows(ctx context.Context, r *http.Request, _ any) (*service.SyncPage, error) {
	const op errs.Op = "TablesHandler.SyncRows"

	var continuation *service.Continuation

	q := r.URL.Query()
	if q.Get("pageToken") != "" || q.Get("rowNumber") != "" {
		continuation = &service.Continuation{
			PageToken: q.Get("pageToken"),
		}

		if q.Get("rowNumber") != "" {
			n, err := strconv.Atoi(q.Get("rowNumber"))
			if err != nil || n < 1 {
				return nil, errs.E(errs.InvalidRequest, op, errs.Parameter("rowNumber"), errs.Str("rowNumber must be a positive integer"))
			}

			continuation.RowNumber = n
		}
	}

	return h.tablesService.SyncRows(ctx, chi.URLParamFromCtx(ctx, "id"), continuation)
}

func (h *TablesHandler) UpdateRows(ctx context.Context, _ *http.Request, in service.UpdateRowsRequest) (*service.UpdateResult, error) {
	return h.tablesService.UpdateRows(ctx, chi.URLParamFromCtx(ctx, "id"), in.Updates)
}

func NewTablesHandler(s service.TablesService) *TablesHandler {
	return &TablesHandler{tablesService: s}
}
