// Package schema describes the declarative record schema handed to the host
// layer. Nothing in here is executed; it only describes values.
package schema

type ValueType string

const (
	String  ValueType = "string"
	Number  ValueType = "number"
	Boolean ValueType = "boolean"
	Array   ValueType = "array"
	Object  ValueType = "object"
)

// Hint refines how a value of a given ValueType should be presented.
type Hint string

const (
	HintDate       Hint = "date"
	HintDateTime   Hint = "dateTime"
	HintPerson     Hint = "person"
	HintSelectList Hint = "selectList"
	HintURL        Hint = "url"
	HintAttachment Hint = "attachment"
	HintReference  Hint = "reference"
)

type OptionsType string

const (
	// OptionsDynamic means the options are fetched from the host when needed.
	OptionsDynamic OptionsType = "dynamic"
)

// Identity names the object type and, for references, where it lives.
type Identity struct {
	Name       string `json:"name"`
	DynamicURL string `json:"dynamicUrl,omitempty"`
}

type Schema struct {
	Type               ValueType          `json:"type"`
	Hint               Hint               `json:"hint,omitempty"`
	Description        string             `json:"description,omitempty"`
	DisplayName        string             `json:"displayName,omitempty"`
	FromKey            string             `json:"fromKey,omitempty"`
	FixedID            string             `json:"fixedId,omitempty"`
	Required           bool               `json:"required,omitempty"`
	Mutable            *bool              `json:"mutable,omitempty"`
	Options            OptionsType        `json:"options,omitempty"`
	Items              *Schema            `json:"items,omitempty"`
	Properties         map[string]*Schema `json:"properties,omitempty"`
	DisplayProperty    string             `json:"displayProperty,omitempty"`
	IDProperty         string             `json:"idProperty,omitempty"`
	FeaturedProperties []string           `json:"featuredProperties,omitempty"`
	Identity           *Identity          `json:"identity,omitempty"`
}

// IsMutable reports whether the value may be edited, values are mutable
// unless explicitly marked otherwise.
func (s *Schema) IsMutable() bool {
	return s.Mutable == nil || *s.Mutable
}

// SetMutable pins the mutability of the value.
func (s *Schema) SetMutable(mutable bool) *Schema {
	s.Mutable = &mutable

	return s
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}

	cp := *s

	if s.Mutable != nil {
		m := *s.Mutable
		cp.Mutable = &m
	}

	cp.Items = s.Items.Clone()

	if s.Properties != nil {
		cp.Properties = make(map[string]*Schema, len(s.Properties))
		for name, prop := range s.Properties {
			cp.Properties[name] = prop.Clone()
		}
	}

	if s.FeaturedProperties != nil {
		cp.FeaturedProperties = append([]string{}, s.FeaturedProperties...)
	}

	if s.Identity != nil {
		id := *s.Identity
		cp.Identity = &id
	}

	return &cp
}

// ArrayOf returns an array schema with the given item schema.
func ArrayOf(items *Schema) *Schema {
	return &Schema{
		Type:  Array,
		Items: items,
	}
}
