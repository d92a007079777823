package tables

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Column data types as reported by the API.
const (
	DataTypeText                = "text"
	DataTypeRowID               = "row_id"
	DataTypeNumber              = "number"
	DataTypeAutoID              = "auto_id"
	DataTypeBoolean             = "boolean"
	DataTypeDate                = "date"
	DataTypePerson              = "person"
	DataTypeCreator             = "creator"
	DataTypeUpdater             = "updater"
	DataTypePersonList          = "person_list"
	DataTypeDropdown            = "dropdown"
	DataTypeCheckList           = "check_list"
	DataTypeTagsList            = "tags_list"
	DataTypeDriveAttachmentList = "drive_attachment_list"
	DataTypeFileAttachmentList  = "file_attachment_list"
	DataTypeLocation            = "location"
	DataTypeRelationship        = "relationship"
	DataTypeCreateTimestamp     = "create_timestamp"
	DataTypeUpdateTimestamp     = "update_timestamp"
	DataTypeCommentTimestamp    = "comment_timestamp"

	// ListSuffix marks a list of a basic data type, e.g. "text_list".
	ListSuffix = "_list"
)

type Table struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Columns     []*Column `json:"columns"`
	TimeZone    string    `json:"timeZone"`
}

func (t Table) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Columns, validation.By(uniqueColumnIDs)),
	)
}

func uniqueColumnIDs(value interface{}) error {
	columns, _ := value.([]*Column)

	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c == nil {
			return fmt.Errorf("nil column")
		}

		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("duplicate column id %q", c.ID)
		}

		seen[c.ID] = struct{}{}
	}

	return nil
}

// Column returns the column with the given id, or nil.
func (t *Table) Column(id string) *Column {
	for _, c := range t.Columns {
		if c.ID == id {
			return c
		}
	}

	return nil
}

type Column struct {
	ID                       string               `json:"id"`
	Name                     string               `json:"name"`
	DataType                 string               `json:"dataType"`
	ReadOnly                 bool                 `json:"readonly,omitempty"`
	MultipleValuesDisallowed bool                 `json:"multipleValuesDisallowed,omitempty"`
	Labels                   []Label              `json:"labels,omitempty"`
	DateDetails              *DateDetails         `json:"dateDetails,omitempty"`
	LookupDetails            *LookupDetails       `json:"lookupDetails,omitempty"`
	RelationshipDetails      *RelationshipDetails `json:"relationshipDetails,omitempty"`
}

func (c Column) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.DataType, validation.Required),
	)
}

// IsLookup reports whether the column is derived through a relationship.
func (c *Column) IsLookup() bool {
	return c.LookupDetails != nil && c.LookupDetails.RelationshipColumn != ""
}

type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DateDetails struct {
	HasTime bool `json:"hasTime"`
}

type LookupDetails struct {
	RelationshipColumn string `json:"relationshipColumn"`
}

type RelationshipDetails struct {
	LinkedTable string `json:"linkedTable"`
}

type Row struct {
	Name       string         `json:"name"`
	Values     map[string]any `json:"values"`
	UpdateTime string         `json:"updateTime,omitempty"`
}

type RowsPage struct {
	Rows          []*Row `json:"rows"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

type tablesPage struct {
	Tables        []*Table `json:"tables"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// Raw value shapes.

type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type DateTime struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Day     int `json:"day"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
	Nanos   int `json:"nanos"`
}

type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanos"`
}

type DriveFile struct {
	ID       string `json:"id"`
	MimeType string `json:"mimeType,omitempty"`
}

type File struct {
	URL string `json:"url"`
}

type Location struct {
	Address string `json:"address"`
}
