// Package memclient provides the in-memory implementation of the
// client capability, used for tests and caching without network
// access.
//
// The store is process-lifetime state: table name -> insertion-ordered
// rows keyed by integer id, with ids assigned on insert. It reproduces
// the remote backend's filtering semantics exactly - the same
// predicate list yields the same result set against either client - so
// the query-set layer can be exercised without a backend.
//
// A single mutex guards all tables and id assignment, making the store
// safe for concurrent use.
package memclient

import (
	"sync"

	"github.com/roach88/rowset/client"
)

// Store implements client.Client over process-lifetime memory.
// The zero value is not usable; construct with New.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

// table holds one table's rows keyed by id plus the insertion order.
// Unordered queries iterate rows in insertion order.
type table struct {
	rows  map[int64]client.Row
	order []int64
}

var _ client.Client = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

// Flush removes every table and row. Callers use it between tests to
// decouple fixtures.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*table)
}

// Len returns the number of rows currently stored in the named table.
func (s *Store) Len(tableName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableName]
	if !ok {
		return 0
	}
	return len(t.order)
}

// Seed inserts fixture rows in order, honoring explicit ids when
// present and assigning the next id otherwise.
func (s *Store) Seed(tableName string, rows []client.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tableLocked(tableName)
	for _, row := range rows {
		r := row.Clone()
		id, ok := r.ID()
		if !ok {
			id = t.nextID()
		}
		r[client.PKColumn] = id
		if _, exists := t.rows[id]; !exists {
			t.order = append(t.order, id)
		}
		t.rows[id] = r
	}
}

// tableLocked returns the named table, creating it empty on first use.
// Callers must hold s.mu.
func (s *Store) tableLocked(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[int64]client.Row)}
		s.tables[name] = t
	}
	return t
}

// nextID returns the id for a new row: one past the highest existing
// id, starting at 1 for an empty table.
func (t *table) nextID() int64 {
	var max int64
	for id := range t.rows {
		if id > max {
			max = id
		}
	}
	return max + 1
}
