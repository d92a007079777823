package convert

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/schema"
	"github.com/navikt/nada-tablesync/pkg/tables"
)

const (
	// isoMillis matches the ISO 8601 output of luxon and Date.toISOString.
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
	naiveISO  = "2006-01-02T15:04:05"
	plainDate = "2006-1-2"
)

type textCodec struct{ identity }

func (textCodec) Schema() *schema.Schema {
	return &schema.Schema{Type: schema.String}
}

type numberCodec struct{ identity }

func (numberCodec) Schema() *schema.Schema {
	return &schema.Schema{Type: schema.Number}
}

type booleanCodec struct{ identity }

func (booleanCodec) Schema() *schema.Schema {
	return &schema.Schema{Type: schema.Boolean}
}

// dateCodec renders dates without a zone so they are the same calendar day
// for every viewer.
type dateCodec struct {
	loc *time.Location
}

func (dateCodec) Schema() *schema.Schema {
	return &schema.Schema{Type: schema.String, Hint: schema.HintDate}
}

func (dateCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.dateCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	d := tables.Date{}

	err := decode(op, raw, &d)
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day), nil
}

func (c dateCodec) ToRaw(value any) (any, error) {
	const op errs.Op = "convert.dateCodec.ToRaw"

	if value == nil {
		return nil, nil
	}

	s, err := asString(op, value)
	if err != nil {
		return nil, err
	}

	t, err := parseInLocation(op, s, c.loc)
	if err != nil {
		return nil, err
	}

	return tables.Date{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}, nil
}

type dateTimeCodec struct {
	loc *time.Location
}

func (dateTimeCodec) Schema() *schema.Schema {
	return &schema.Schema{Type: schema.String, Hint: schema.HintDateTime}
}

func (c dateTimeCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.dateTimeCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	d := tables.DateTime{}

	err := decode(op, raw, &d)
	if err != nil {
		return nil, err
	}

	millis := d.Nanos / NanosPerMilli

	t := time.Date(d.Year, time.Month(d.Month), d.Day, d.Hours, d.Minutes, d.Seconds, millis*NanosPerMilli, c.loc)

	return t.Format(isoMillis), nil
}

func (c dateTimeCodec) ToRaw(value any) (any, error) {
	const op errs.Op = "convert.dateTimeCodec.ToRaw"

	if value == nil {
		return nil, nil
	}

	s, err := asString(op, value)
	if err != nil {
		return nil, err
	}

	t, err := parseInLocation(op, s, c.loc)
	if err != nil {
		return nil, err
	}

	return tables.DateTime{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Hours:   t.Hour(),
		Minutes: t.Minute(),
		Seconds: t.Second(),
		Nanos:   (t.Nanosecond() / NanosPerMilli) * NanosPerMilli,
	}, nil
}

// parseInLocation reads an ISO 8601 date or date-time. Values with an
// offset are moved into loc, naive values are read as local to loc.
func parseInLocation(op errs.Op, s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}

	for _, layout := range []string{naiveISO, plainDate} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errs.E(errs.Invalid, op, fmt.Errorf("unrecognized date %q", s))
}

type personCodec struct{}

func (personCodec) Schema() *schema.Schema {
	return &schema.Schema{
		Type: schema.Object,
		Hint: schema.HintPerson,
		Properties: map[string]*schema.Schema{
			"name":  {Type: schema.String},
			"email": {Type: schema.String, Required: true},
		},
		DisplayProperty: "name",
		IDProperty:      "email",
	}
}

func (personCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.personCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	email, err := asString(op, raw)
	if err != nil {
		return nil, err
	}

	return PersonReference{
		Name:  UnknownPersonName,
		Email: email,
	}, nil
}

func (personCodec) ToRaw(value any) (any, error) {
	const op errs.Op = "convert.personCodec.ToRaw"

	if value == nil {
		return nil, nil
	}

	if email, ok := value.(string); ok {
		return email, nil
	}

	p := PersonReference{}

	err := decode(op, value, &p)
	if err != nil {
		return nil, err
	}

	return p.Email, nil
}

type selectCodec struct{ identity }

func (selectCodec) Schema() *schema.Schema {
	return &schema.Schema{
		Type:    schema.String,
		Hint:    schema.HintSelectList,
		Options: schema.OptionsDynamic,
	}
}

type driveFilesCodec struct{ readOnly }

func (driveFilesCodec) Schema() *schema.Schema {
	return schema.ArrayOf(&schema.Schema{
		Type: schema.String,
		Hint: schema.HintURL,
	}).SetMutable(false)
}

func (driveFilesCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.driveFilesCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	var files []tables.DriveFile

	err := decode(op, raw, &files)
	if err != nil {
		return nil, err
	}

	urls := make([]any, 0, len(files))
	for _, f := range files {
		urls = append(urls, DriveOpenURL+"?"+url.Values{"id": {f.ID}}.Encode())
	}

	return urls, nil
}

type filesCodec struct{ readOnly }

func (filesCodec) Schema() *schema.Schema {
	return schema.ArrayOf(&schema.Schema{
		Type: schema.String,
		Hint: schema.HintAttachment,
	}).SetMutable(false)
}

func (filesCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.filesCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	var files []tables.File

	err := decode(op, raw, &files)
	if err != nil {
		return nil, err
	}

	urls := make([]any, 0, len(files))
	for _, f := range files {
		urls = append(urls, f.URL)
	}

	return urls, nil
}

type locationCodec struct{ readOnly }

func (locationCodec) Schema() *schema.Schema {
	return (&schema.Schema{Type: schema.String}).SetMutable(false)
}

func (locationCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.locationCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	l := tables.Location{}

	err := decode(op, raw, &l)
	if err != nil {
		return nil, err
	}

	return l.Address, nil
}

// referenceCodec points at a row in another table.
type referenceCodec struct {
	dynamicURL string
}

func (c referenceCodec) Schema() *schema.Schema {
	base := BaseRowSchema()

	return &schema.Schema{
		Type: schema.Object,
		Hint: schema.HintReference,
		Properties: map[string]*schema.Schema{
			RowIDProperty:    base.Properties[RowIDProperty],
			RowLabelProperty: base.Properties[RowLabelProperty],
		},
		DisplayProperty: base.DisplayProperty,
		IDProperty:      base.IDProperty,
		Identity: &schema.Identity{
			Name:       ReferenceIdentity,
			DynamicURL: c.dynamicURL,
		},
	}
}

func (referenceCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.referenceCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	name, err := asString(op, raw)
	if err != nil {
		return nil, err
	}

	return RowReference{
		Name:     name,
		RowLabel: RowNotFoundLabel,
	}, nil
}

func (referenceCodec) ToRaw(value any) (any, error) {
	const op errs.Op = "convert.referenceCodec.ToRaw"

	if value == nil {
		return nil, nil
	}

	if name, ok := value.(string); ok {
		return name, nil
	}

	ref := RowReference{}

	err := decode(op, value, &ref)
	if err != nil {
		return nil, err
	}

	return ref.Name, nil
}

type timestampCodec struct{}

func (timestampCodec) Schema() *schema.Schema {
	return &schema.Schema{Type: schema.String, Hint: schema.HintDateTime}
}

func (timestampCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.timestampCodec.ToSchema"

	if raw == nil {
		return nil, nil
	}

	ts := tables.Timestamp{}

	err := decode(op, raw, &ts)
	if err != nil {
		return nil, err
	}

	millis := ts.Seconds*MillisPerSecond + ts.Nanos/NanosPerMilli

	return time.UnixMilli(millis).UTC().Format(isoMillis), nil
}

func (timestampCodec) ToRaw(value any) (any, error) {
	const op errs.Op = "convert.timestampCodec.ToRaw"

	if value == nil {
		return nil, nil
	}

	s, err := asString(op, value)
	if err != nil {
		return nil, err
	}

	t, err := parseInLocation(op, s, time.UTC)
	if err != nil {
		return nil, err
	}

	millis := t.UnixMilli()

	seconds := millis / MillisPerSecond
	remainder := millis % MillisPerSecond

	// Floor towards negative infinity for instants before the epoch.
	if remainder < 0 {
		seconds--
		remainder += MillisPerSecond
	}

	return tables.Timestamp{
		Seconds: seconds,
		Nanos:   remainder * NanosPerMilli,
	}, nil
}

// fallbackCodec shows values of unsupported column types as text.
type fallbackCodec struct{ readOnly }

func (fallbackCodec) Schema() *schema.Schema {
	return (&schema.Schema{Type: schema.String}).SetMutable(false)
}

func (fallbackCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.fallbackCodec.ToSchema"

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case bool, int, int64, int32:
		return fmt.Sprint(v), nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errs.E(errs.Invalid, op, err)
	}

	return string(data), nil
}
