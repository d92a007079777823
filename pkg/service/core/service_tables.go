package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/navikt/nada-tablesync/pkg/convert"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/schema"
	"github.com/navikt/nada-tablesync/pkg/service"
	"github.com/navikt/nada-tablesync/pkg/tables"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const tableNamePrefix = "tables/"

var _ service.TablesService = &tablesService{}

type tablesService struct {
	tablesAPI service.TablesAPI
	resolver  *convert.Resolver
	rows      *prometheus.CounterVec
	log       zerolog.Logger
}

// NewRowsCounter returns the counter expected by NewTablesService.
func NewRowsCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tablesync",
		Name:      "rows_total",
		Help:      "Rows synced and updated, by outcome.",
	}, []string{"operation", "result"})
}

func tableName(tableID string) string {
	if strings.HasPrefix(tableID, tableNamePrefix) {
		return tableID
	}

	return tableNamePrefix + tableID
}

func (s *tablesService) ListTables(ctx context.Context, query string) ([]service.TableOption, error) {
	const op errs.Op = "tablesService.ListTables"

	all, err := s.tablesAPI.ListTables(ctx)
	if err != nil {
		return nil, errs.E(op, err)
	}

	query = strings.ToLower(strings.TrimSpace(query))

	options := []service.TableOption{}

	for _, t := range all {
		if query != "" && !strings.Contains(strings.ToLower(t.DisplayName), query) {
			continue
		}

		options = append(options, service.TableOption{
			Display: t.DisplayName,
			Value:   s.tablesAPI.TableURL(t.Name),
		})
	}

	return options, nil
}

func (s *tablesService) GetTable(ctx context.Context, tableID string) (*service.TableInfo, error) {
	const op errs.Op = "tablesService.GetTable"

	t, err := s.tablesAPI.GetTable(ctx, tableName(tableID))
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.TableInfo{
		Name:        t.Name,
		DisplayName: t.DisplayName,
		URL:         s.tablesAPI.TableURL(t.Name),
		DisplayURL:  s.tablesAPI.DisplayURL(t.Name),
	}, nil
}

func (s *tablesService) GetSchema(ctx context.Context, tableID string) (*schema.Schema, error) {
	const op errs.Op = "tablesService.GetSchema"

	t, err := s.tablesAPI.GetTable(ctx, tableName(tableID))
	if err != nil {
		return nil, errs.E(op, err)
	}

	return s.resolver.AssembleSchema(convert.BaseRowSchema(), t), nil
}

func (s *tablesService) GetPropertyOptions(ctx context.Context, tableID, columnID string) ([]string, error) {
	const op errs.Op = "tablesService.GetPropertyOptions"

	t, err := s.tablesAPI.GetTable(ctx, tableName(tableID))
	if err != nil {
		return nil, errs.E(op, err)
	}

	options, err := convert.PropertyOptions(t, columnID)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return options, nil
}

func (s *tablesService) SyncRows(ctx context.Context, tableID string, continuation *service.Continuation) (*service.SyncPage, error) {
	const op errs.Op = "tablesService.SyncRows"

	pageToken := ""
	rowNumber := 1

	if continuation != nil {
		pageToken = continuation.PageToken

		if continuation.RowNumber > 0 {
			rowNumber = continuation.RowNumber
		}
	}

	t, err := s.tablesAPI.GetTable(ctx, tableName(tableID))
	if err != nil {
		return nil, errs.E(op, err)
	}

	page, err := s.tablesAPI.ListRows(ctx, t.Name, pageToken)
	if err != nil {
		return nil, errs.E(op, err)
	}

	result := make([]convert.SchemaRow, 0, len(page.Rows))

	for _, row := range page.Rows {
		projected, err := convert.ProjectRow(s.resolver, row, t, strconv.Itoa(rowNumber))
		if err != nil {
			s.count("sync", "error")

			return nil, errs.E(op, err)
		}

		s.count("sync", "ok")

		result = append(result, projected)
		rowNumber++
	}

	var next *service.Continuation
	if page.NextPageToken != "" {
		next = &service.Continuation{
			PageToken: page.NextPageToken,
			RowNumber: rowNumber,
		}
	}

	return &service.SyncPage{
		Result:       result,
		Continuation: next,
	}, nil
}

// UpdateRows writes every update as its own request. A failing row is
// reported in its result and never affects the other rows.
func (s *tablesService) UpdateRows(ctx context.Context, tableID string, updates []service.RowUpdate) (*service.UpdateResult, error) {
	const op errs.Op = "tablesService.UpdateRows"

	if len(updates) > service.MaxUpdateBatchSize {
		return nil, errs.E(errs.InvalidRequest, op, errs.Parameter("updates"),
			fmt.Errorf("at most %d rows can be updated at once, got %d", service.MaxUpdateBatchSize, len(updates)))
	}

	t, err := s.tablesAPI.GetTable(ctx, tableName(tableID))
	if err != nil {
		return nil, errs.E(op, err)
	}

	results := make([]service.RowUpdateResult, len(updates))

	g := errgroup.Group{}
	g.SetLimit(service.MaxUpdateBatchSize)

	for i, update := range updates {
		g.Go(func() error {
			row, err := s.updateRow(ctx, t, update)
			if err != nil {
				s.log.Warn().Err(err).Str("row", update.NewValue.Name()).Strs("stack", errs.OpStack(err)).Msg("updating row")
				s.count("update", "error")

				results[i] = service.RowUpdateResult{Error: rowError(err)}

				return nil
			}

			s.count("update", "ok")
			results[i] = service.RowUpdateResult{Row: row}

			return nil
		})
	}

	_ = g.Wait()

	return &service.UpdateResult{Result: results}, nil
}

// rowError keeps the upstream status of an unstructured API failure, which
// would otherwise be hidden behind the kind of a 5xx error.
func rowError(err error) *errs.ServiceError {
	se, _ := errs.ToServiceError(err)

	var statusErr *tables.StatusCodeError
	if se.Message == "" && errors.As(err, &statusErr) {
		se.Message = statusErr.Error()
	}

	return &se
}

func (s *tablesService) updateRow(ctx context.Context, t *tables.Table, update service.RowUpdate) (convert.SchemaRow, error) {
	const op errs.Op = "tablesService.updateRow"

	row, err := convert.ReconstructRow(s.resolver, update.NewValue, t)
	if err != nil {
		return nil, errs.E(op, err)
	}

	convert.PruneUntouched(row, update.UpdatedFields)

	updated, err := s.tablesAPI.UpdateRow(ctx, row)
	if err != nil {
		return nil, errs.E(op, err)
	}

	projected, err := convert.ProjectRow(s.resolver, updated, t, update.PreviousValue.Label())
	if err != nil {
		return nil, errs.E(op, err)
	}

	return projected, nil
}

func (s *tablesService) count(operation, result string) {
	if s.rows != nil {
		s.rows.WithLabelValues(operation, result).Inc()
	}
}

func NewTablesService(api service.TablesAPI, resolver *convert.Resolver, rows *prometheus.CounterVec, log zerolog.Logger) *tablesService {
	return &tablesService{
		tablesAPI: api,
		resolver:  resolver,
		rows:      rows,
		log:       log,
	}
}
