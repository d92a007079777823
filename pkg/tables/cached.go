package tables

import (
	"context"

	"github.com/navikt/nada-tablesync/pkg/cache"
)

var _ Operations = &CachedClient{}

// CachedClient caches table metadata, rows are always fetched from the API.
type CachedClient struct {
	Operations

	cache cache.Cacher
}

func (c *CachedClient) ListTables(ctx context.Context) ([]*Table, error) {
	key := "tables:list"

	var tables []*Table
	if c.cache.Get(key, &tables) {
		return tables, nil
	}

	tables, err := c.Operations.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, tables)

	return tables, nil
}

func (c *CachedClient) GetTable(ctx context.Context, name string) (*Table, error) {
	key := "tables:get:" + name

	table := &Table{}
	if c.cache.Get(key, table) {
		return table, nil
	}

	table, err := c.Operations.GetTable(ctx, name)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, table)

	return table, nil
}

func NewCachedClient(ops Operations, cacher cache.Cacher) *CachedClient {
	return &CachedClient{
		Operations: ops,
		cache:      cacher,
	}
}
