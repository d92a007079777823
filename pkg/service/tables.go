package service

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/navikt/nada-tablesync/pkg/convert"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/schema"
	"github.com/navikt/nada-tablesync/pkg/tables"
)

// MaxUpdateBatchSize is the largest number of rows updated in one call to
// UpdateRows, and the number of rows updated concurrently.
const MaxUpdateBatchSize = 10

type TablesAPI interface {
	ListTables(ctx context.Context) ([]*tables.Table, error)
	GetTable(ctx context.Context, name string) (*tables.Table, error)
	ListRows(ctx context.Context, name, pageToken string) (*tables.RowsPage, error)
	UpdateRow(ctx context.Context, row *tables.Row) (*tables.Row, error)
	TableURL(name string) string
	DisplayURL(name string) string
}

type TablesService interface {
	// ListTables returns the tables whose display name contains query, all
	// tables when query is empty.
	ListTables(ctx context.Context, query string) ([]TableOption, error)
	GetTable(ctx context.Context, tableID string) (*TableInfo, error)
	GetSchema(ctx context.Context, tableID string) (*schema.Schema, error)
	GetPropertyOptions(ctx context.Context, tableID, columnID string) ([]string, error)
	SyncRows(ctx context.Context, tableID string, continuation *Continuation) (*SyncPage, error)
	UpdateRows(ctx context.Context, tableID string, updates []RowUpdate) (*UpdateResult, error)
}

type TableOption struct {
	Display string `json:"display"`
	Value   string `json:"value"`
}

type TableInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
	DisplayURL  string `json:"displayUrl"`
}

// Continuation picks up a sync where the previous page ended, row labels
// are running numbers across pages.
type Continuation struct {
	PageToken string `json:"pageToken"`
	RowNumber int    `json:"rowNumber"`
}

type SyncPage struct {
	Result       []convert.SchemaRow `json:"result"`
	Continuation *Continuation       `json:"continuation,omitempty"`
}

type RowUpdate struct {
	PreviousValue convert.SchemaRow `json:"previousValue"`
	NewValue      convert.SchemaRow `json:"newValue"`
	UpdatedFields []string          `json:"updatedFields"`
}

// RowUpdateResult holds either the updated row or the reason it failed.
type RowUpdateResult struct {
	Row   convert.SchemaRow  `json:"row,omitempty"`
	Error *errs.ServiceError `json:"error,omitempty"`
}

type UpdateResult struct {
	Result []RowUpdateResult `json:"result"`
}

type UpdateRowsRequest struct {
	Updates []RowUpdate `json:"updates"`
}

func (r UpdateRowsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Updates, validation.Required, validation.Length(1, MaxUpdateBatchSize)),
	)
}

func (u RowUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.NewValue, validation.Required, validation.By(hasRowName)),
	)
}

func hasRowName(value any) error {
	row, _ := value.(convert.SchemaRow)
	if row.Name() == "" {
		return errors.New("must have a row name")
	}

	return nil
}
