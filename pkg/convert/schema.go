package convert

import (
	"fmt"

	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/schema"
	"github.com/navikt/nada-tablesync/pkg/tables"
)

// Properties of the base row schema.
const (
	RowIDProperty       = "rowId"
	RowLabelProperty    = "rowLabel"
	LastUpdatedProperty = "lastUpdated"

	// ReferenceIdentity names the rows referenced across tables.
	ReferenceIdentity = "Table"
)

// BaseRowSchema is extended with one property per column of a table.
func BaseRowSchema() *schema.Schema {
	return &schema.Schema{
		Type: schema.Object,
		Properties: map[string]*schema.Schema{
			RowIDProperty: {
				Type:        schema.String,
				Description: "Internal ID of the row.",
				FromKey:     RowKeyName,
				Required:    true,
			},
			RowLabelProperty: {
				Type:     schema.String,
				Required: true,
			},
			LastUpdatedProperty: {
				Type:    schema.String,
				Hint:    schema.HintDateTime,
				FromKey: RowKeyUpdateTime,
			},
		},
		DisplayProperty:    RowLabelProperty,
		IDProperty:         RowIDProperty,
		FeaturedProperties: []string{},
	}
}

// PropertySchema describes the values of a single column.
func (r *Resolver) PropertySchema(column *tables.Column, table *tables.Table) *schema.Schema {
	s := r.Resolve(column, table).Schema()

	s.FromKey = column.ID
	s.FixedID = column.ID
	s.DisplayName = column.Name

	switch {
	case column.IsLookup():
		s.Description = fmt.Sprintf("Looked up through the relationship column %s.", column.LookupDetails.RelationshipColumn)
		s.SetMutable(false)
	case column.ReadOnly:
		s.SetMutable(false)
	case s.Mutable == nil:
		s.SetMutable(true)
	}

	return s
}

// AssembleSchema adds a featured property per column to a copy of base,
// keyed by the column name. A column is left out when its name is already
// taken by a base property or an earlier column.
func (r *Resolver) AssembleSchema(base *schema.Schema, table *tables.Table) *schema.Schema {
	s := base.Clone()

	if s.Properties == nil {
		s.Properties = map[string]*schema.Schema{}
	}

	reserved := make(map[string]struct{}, len(s.Properties))
	for name := range s.Properties {
		reserved[name] = struct{}{}
	}

	for _, column := range table.Columns {
		if _, ok := reserved[column.Name]; ok {
			r.log.Warn().
				Str("column", column.ID).
				Str("name", column.Name).
				Str("table", table.Name).
				Msg("property name already taken, skipping column")

			continue
		}

		reserved[column.Name] = struct{}{}

		s.Properties[column.Name] = r.PropertySchema(column, table)
		s.FeaturedProperties = append(s.FeaturedProperties, column.Name)
	}

	return s
}

// PropertyOptions returns the labels of a select column, in the order
// defined by the table.
func PropertyOptions(table *tables.Table, columnID string) ([]string, error) {
	column := table.Column(columnID)
	if column == nil {
		return nil, errUnknownColumn("convert.PropertyOptions", errs.NotExist, columnID)
	}

	options := make([]string, 0, len(column.Labels))
	for _, label := range column.Labels {
		options = append(options, label.Name)
	}

	return options, nil
}
