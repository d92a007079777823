package convert

import (
	"strings"
	"time"

	"github.com/navikt/nada-tablesync/pkg/tables"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// maxListDepth bounds how many list suffixes are stripped from a data type.
const maxListDepth = 2

// Resolver picks the codec for a column. It holds no mutable state and is
// safe for concurrent use.
type Resolver struct {
	apiURL      string
	log         zerolog.Logger
	unsupported *prometheus.CounterVec
}

// NewResolver returns a Resolver that links references to tables below
// apiURL. unsupported counts columns falling back to text per data type,
// and may be nil.
func NewResolver(apiURL string, log zerolog.Logger, unsupported *prometheus.CounterVec) *Resolver {
	return &Resolver{
		apiURL:      strings.TrimSuffix(apiURL, "/"),
		log:         log,
		unsupported: unsupported,
	}
}

// NewUnsupportedCounter returns the counter expected by NewResolver.
func NewUnsupportedCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tablesync",
		Name:      "unsupported_column_types_total",
		Help:      "Columns shown as text because their data type is not supported.",
	}, []string{"data_type"})
}

// Resolve never fails, columns of an unsupported data type are shown as
// read only text.
func (r *Resolver) Resolve(column *tables.Column, table *tables.Table) Codec {
	codec, ok := r.resolve(column.DataType, column, table, 0)
	if ok {
		return codec
	}

	r.log.Warn().
		Str("data_type", column.DataType).
		Str("column", column.ID).
		Str("table", table.Name).
		Msg("no codec for column data type, showing it as text")

	if r.unsupported != nil {
		r.unsupported.WithLabelValues(column.DataType).Inc()
	}

	return fallbackCodec{}
}

func (r *Resolver) resolve(dataType string, column *tables.Column, table *tables.Table, depth int) (Codec, bool) {
	switch dataType {
	case tables.DataTypeText, tables.DataTypeRowID:
		return textCodec{}, true
	case tables.DataTypeNumber, tables.DataTypeAutoID:
		return numberCodec{}, true
	case tables.DataTypeBoolean:
		return booleanCodec{}, true
	case tables.DataTypeDate:
		if column.DateDetails == nil || !column.DateDetails.HasTime {
			return dateCodec{loc: r.location(table)}, true
		}

		return dateTimeCodec{loc: r.location(table)}, true
	case tables.DataTypePerson, tables.DataTypeCreator, tables.DataTypeUpdater:
		return personCodec{}, true
	case tables.DataTypePersonList:
		if column.MultipleValuesDisallowed {
			return Unwrap(personCodec{}), true
		}

		return List(personCodec{}), true
	case tables.DataTypeDropdown:
		return selectCodec{}, true
	case tables.DataTypeCheckList, tables.DataTypeTagsList:
		return List(selectCodec{}), true
	case tables.DataTypeDriveAttachmentList:
		return driveFilesCodec{}, true
	case tables.DataTypeFileAttachmentList:
		return filesCodec{}, true
	case tables.DataTypeLocation:
		return locationCodec{}, true
	case tables.DataTypeRelationship:
		return referenceCodec{dynamicURL: r.linkedTableURL(column)}, true
	case tables.DataTypeCreateTimestamp, tables.DataTypeUpdateTimestamp, tables.DataTypeCommentTimestamp:
		return timestampCodec{}, true
	}

	if depth < maxListDepth && strings.HasSuffix(dataType, tables.ListSuffix) {
		base, ok := r.resolve(strings.TrimSuffix(dataType, tables.ListSuffix), column, table, depth+1)
		if ok {
			return List(base), true
		}
	}

	return nil, false
}

func (r *Resolver) linkedTableURL(column *tables.Column) string {
	if column.RelationshipDetails == nil || column.RelationshipDetails.LinkedTable == "" {
		return ""
	}

	return r.apiURL + "/" + strings.TrimPrefix(column.RelationshipDetails.LinkedTable, "/")
}

// location falls back to UTC when the table has no, or an unknown, zone.
func (r *Resolver) location(table *tables.Table) *time.Location {
	if table.TimeZone == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(table.TimeZone)
	if err != nil {
		r.log.Warn().Err(err).Str("table", table.Name).Msg("unknown table time zone, using UTC")

		return time.UTC
	}

	return loc
}
