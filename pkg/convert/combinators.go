package convert

import (
	"fmt"

	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/navikt/nada-tablesync/pkg/schema"
)

// listCodec applies its base codec to every element of a list.
type listCodec struct {
	base Codec
}

func List(base Codec) Codec {
	return &listCodec{base: base}
}

func (c *listCodec) Schema() *schema.Schema {
	items := c.base.Schema()

	s := schema.ArrayOf(items)
	if !items.IsMutable() {
		s.SetMutable(false)
	}

	return s
}

func (c *listCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.listCodec.ToSchema"

	return c.each(op, raw, c.base.ToSchema)
}

func (c *listCodec) ToRaw(value any) (any, error) {
	const op errs.Op = "convert.listCodec.ToRaw"

	return c.each(op, value, c.base.ToRaw)
}

func (c *listCodec) each(op errs.Op, value any, fn func(any) (any, error)) (any, error) {
	if value == nil {
		return nil, nil
	}

	list, err := asSlice(op, value)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(list))

	for i, v := range list {
		converted, err := fn(v)
		if err != nil {
			return nil, errs.E(op, fmt.Errorf("element %d: %w", i, err))
		}

		out = append(out, converted)
	}

	return out, nil
}

// unwrapCodec exposes a list that always holds a single element as the
// element itself.
type unwrapCodec struct {
	base Codec
}

func Unwrap(base Codec) Codec {
	return &unwrapCodec{base: base}
}

func (c *unwrapCodec) Schema() *schema.Schema {
	return c.base.Schema()
}

// ToSchema uses the first element and ignores the rest, an empty list is
// treated as a missing value.
func (c *unwrapCodec) ToSchema(raw any) (any, error) {
	const op errs.Op = "convert.unwrapCodec.ToSchema"

	if raw == nil {
		return c.base.ToSchema(nil)
	}

	list, err := asSlice(op, raw)
	if err != nil {
		return nil, err
	}

	if len(list) == 0 {
		return c.base.ToSchema(nil)
	}

	return c.base.ToSchema(list[0])
}

func (c *unwrapCodec) ToRaw(value any) (any, error) {
	v, err := c.base.ToRaw(value)
	if err != nil {
		return nil, err
	}

	return []any{v}, nil
}
