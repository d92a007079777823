package convert

import (
	"errors"
	"fmt"
	"slices"

	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/tables"
)

// Keys of a SchemaRow that don't hold column values.
const (
	RowKeyName       = "name"
	RowKeyLabel      = "rowLabel"
	RowKeyUpdateTime = "updateTime"
)

// SchemaRow holds the schema facing values of a row keyed by column id,
// next to the row name, label and update time.
type SchemaRow map[string]any

func (r SchemaRow) Name() string {
	name, _ := r[RowKeyName].(string)

	return name
}

func (r SchemaRow) Label() string {
	label, _ := r[RowKeyLabel].(string)

	return label
}

func errUnknownColumn(op errs.Op, kind errs.Kind, columnID string) error {
	return errs.E(kind, op, errs.Parameter(columnID), fmt.Errorf("%w: %s", ErrUnknownColumn, columnID))
}

// ProjectRow converts every value of row into its schema facing form. A
// value for a column the table doesn't have means the row and table are out
// of sync, and fails the row.
func ProjectRow(resolver *Resolver, row *tables.Row, table *tables.Table, label string) (SchemaRow, error) {
	const op errs.Op = "convert.ProjectRow"

	out := SchemaRow{
		RowKeyName:  row.Name,
		RowKeyLabel: label,
	}

	if row.UpdateTime != "" {
		out[RowKeyUpdateTime] = row.UpdateTime
	}

	for columnID, raw := range row.Values {
		column := table.Column(columnID)
		if column == nil {
			return nil, errUnknownColumn(op, errs.Internal, columnID)
		}

		value, err := resolver.Resolve(column, table).ToSchema(raw)
		if err != nil {
			return nil, errs.E(op, errs.Parameter(columnID), err)
		}

		out[columnID] = value
	}

	return out, nil
}

// ReconstructRow converts an edited row back into its upstream form. Columns
// missing from edited are left out, explicit nils and empty strings are kept
// unconverted so values can be cleared. Columns that can't be written back
// are left out.
func ReconstructRow(resolver *Resolver, edited SchemaRow, table *tables.Table) (*tables.Row, error) {
	const op errs.Op = "convert.ReconstructRow"

	name := edited.Name()
	if name == "" {
		return nil, errs.E(errs.Invalid, op, errs.Parameter(RowKeyName), errs.Str("row has no name"))
	}

	row := &tables.Row{
		Name:   name,
		Values: map[string]any{},
	}

	for _, column := range table.Columns {
		value, ok := edited[column.ID]
		if !ok {
			continue
		}

		if value == nil {
			row.Values[column.ID] = nil

			continue
		}

		raw, err := resolver.Resolve(column, table).ToRaw(value)
		if errors.Is(err, ErrNotInvertible) {
			continue
		}

		// A cleared field arrives as "" whatever the column type.
		if value == "" {
			row.Values[column.ID] = ""

			continue
		}

		if err != nil {
			return nil, errs.E(op, errs.Parameter(column.ID), err)
		}

		row.Values[column.ID] = raw
	}

	return row, nil
}

// PruneUntouched removes the values of every column not in touched, so a
// patch never overwrites fields the caller didn't change.
func PruneUntouched(row *tables.Row, touched []string) *tables.Row {
	for columnID := range row.Values {
		if !slices.Contains(touched, columnID) {
			delete(row.Values, columnID)
		}
	}

	return row
}
