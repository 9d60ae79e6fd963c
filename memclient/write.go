package memclient

import (
	"context"

	"github.com/roach88/rowset/client"
)

// Insert stores one new row and returns a copy carrying the assigned
// id: one past the highest id currently in the table, starting at 1.
// An id supplied by the caller is ignored.
func (s *Store) Insert(ctx context.Context, tableName string, row client.Row) (client.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tableLocked(tableName)
	r := row.Clone()
	id := t.nextID()
	r[client.PKColumn] = id
	t.rows[id] = r
	t.order = append(t.order, id)

	return r.Clone(), nil
}

// Update applies patch to every row matching q's predicates and
// returns copies of the updated rows. Ordering and slicing on q are
// ignored; the id column is immutable and never reassigned.
func (s *Store) Update(ctx context.Context, q client.Query, patch client.Row) ([]client.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[q.Table]
	if !ok {
		return nil, nil
	}

	var updated []client.Row
	for _, id := range t.order {
		row := t.rows[id]
		if !matches(row, q.Predicates) {
			continue
		}
		for k, v := range patch {
			if k == client.PKColumn {
				continue
			}
			row[k] = v
		}
		updated = append(updated, row.Clone())
	}

	return updated, nil
}

// Delete removes every row matching q's predicates and returns the
// number of rows deleted. Ordering and slicing on q are ignored.
func (s *Store) Delete(ctx context.Context, q client.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[q.Table]
	if !ok {
		return 0, nil
	}

	kept := t.order[:0]
	deleted := 0
	for _, id := range t.order {
		if matches(t.rows[id], q.Predicates) {
			delete(t.rows, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept

	return deleted, nil
}
