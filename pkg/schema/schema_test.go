package schema_test

import (
	"testing"

	"github.com/navikt/nada-tablesync/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestClone(t *testing.T) {
	orig := &schema.Schema{
		Type: schema.Object,
		Properties: map[string]*schema.Schema{
			"name": {Type: schema.String},
		},
		FeaturedProperties: []string{"name"},
		Identity:           &schema.Identity{Name: "Table"},
	}
	orig.SetMutable(false)

	cp := orig.Clone()
	assert.Equal(t, orig, cp)

	cp.Properties["name"].Type = schema.Number
	cp.FeaturedProperties[0] = "other"
	cp.Identity.Name = "Other"
	cp.SetMutable(true)

	assert.Equal(t, schema.String, orig.Properties["name"].Type)
	assert.Equal(t, "name", orig.FeaturedProperties[0])
	assert.Equal(t, "Table", orig.Identity.Name)
	assert.False(t, orig.IsMutable())
}

func TestIsMutableDefault(t *testing.T) {
	s := &schema.Schema{Type: schema.String}
	assert.True(t, s.IsMutable())
	assert.False(t, s.SetMutable(false).IsMutable())
}
