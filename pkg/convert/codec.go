// Package convert maps Tables column values to and from their schema facing
// form, and describes those values in a declarative schema.
//
// Every column resolves to exactly one Codec through a Resolver. A Codec
// describes its value with Schema, converts upstream values with ToSchema
// and converts edited values back with ToRaw.
package convert

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/schema"
)

const (
	// UnknownPersonName is shown for people, the API only returns emails.
	UnknownPersonName = "Unknown"

	// RowNotFoundLabel is the label of referenced rows, resolving the real
	// label requires fetching the linked table.
	RowNotFoundLabel = "Not found"

	DriveOpenURL = "https://drive.google.com/open"

	NanosPerMilli   = 1_000_000
	MillisPerSecond = 1000
)

var (
	// ErrNotInvertible is returned by ToRaw for values that can't be
	// written back upstream.
	ErrNotInvertible = errors.New("value can not be written back")

	ErrUnknownColumn = errors.New("unknown column")
)

type Codec interface {
	// Schema describes the schema facing value, without any column
	// specific decoration.
	Schema() *schema.Schema

	// ToSchema converts an upstream value, nil is returned as nil.
	ToSchema(raw any) (any, error)

	// ToRaw converts a schema facing value back to its upstream form.
	ToRaw(value any) (any, error)
}

type PersonReference struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RowReference struct {
	Name     string `json:"name"`
	RowLabel string `json:"rowLabel"`
}

// identity passes values through unchanged in both directions.
type identity struct{}

func (identity) ToSchema(raw any) (any, error) {
	return raw, nil
}

func (identity) ToRaw(value any) (any, error) {
	return value, nil
}

// readOnly has no write path.
type readOnly struct{}

func (readOnly) ToRaw(any) (any, error) {
	return nil, ErrNotInvertible
}

func decode(op errs.Op, input, into any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           into,
	})
	if err != nil {
		return errs.E(errs.Internal, op, err)
	}

	err = dec.Decode(input)
	if err != nil {
		return errs.E(errs.Invalid, op, fmt.Errorf("decoding %T: %w", input, err))
	}

	return nil
}

func asString(op errs.Op, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", errs.E(errs.Invalid, op, fmt.Errorf("expected a string, got %T", value))
	}

	return s, nil
}

// asSlice accepts any slice or array, decoded JSON arrives as []any while
// callers in Go tend to pass typed slices.
func asSlice(op errs.Op, value any) ([]any, error) {
	if list, ok := value.([]any); ok {
		return list, nil
	}

	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, errs.E(errs.Invalid, op, fmt.Errorf("expected a list, got %T", value))
	}

	list := make([]any, v.Len())
	for i := range list {
		list[i] = v.Index(i).Interface()
	}

	return list, nil
}
