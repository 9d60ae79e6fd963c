// Package testutil provides shared test fixtures: the canonical items
// table and a seeded in-memory store constructor.
package testutil

import (
	_ "embed"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rowset/client"
	"github.com/roach88/rowset/memclient"
)

//go:embed testdata/items.yaml
var itemsYAML []byte

// ItemsTable is the table name the fixture rows live in.
const ItemsTable = "items"

// ItemRows returns the canonical fixture rows:
//
//	{id:1, name:"A", age:10}
//	{id:2, name:"B", age:20}
//	{id:3, name:"C", age:20}
func ItemRows(t *testing.T) []client.Row {
	t.Helper()

	var rows []client.Row
	require.NoError(t, yaml.Unmarshal(itemsYAML, &rows), "parse items fixture")
	require.Len(t, rows, 3, "items fixture shape")
	return rows
}

// SeedItems returns a fresh in-memory store pre-seeded with the items
// fixture.
func SeedItems(t *testing.T) *memclient.Store {
	t.Helper()

	store := memclient.New()
	store.Seed(ItemsTable, ItemRows(t))
	return store
}
