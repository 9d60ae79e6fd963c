package memclient

import (
	"context"
	"sort"

	"github.com/roach88/rowset/client"
)

// Select returns the rows matching q in deterministic order: insertion
// order when no ordering is set, otherwise a stable sort on the named
// field. Offset and limit slice the ordered result. Returned rows are
// copies; mutating them never touches the store.
func (s *Store) Select(ctx context.Context, q client.Query) ([]client.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.selectLocked(q)
	out := make([]client.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// Count returns the number of rows Select would return for q,
// including the effect of offset and limit.
func (s *Store) Count(ctx context.Context, q client.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.selectLocked(q)), nil
}

// selectLocked runs the full read pipeline - filter, order, slice -
// returning references into the store. Callers must hold s.mu and
// clone before releasing rows to the outside.
func (s *Store) selectLocked(q client.Query) []client.Row {
	t, ok := s.tables[q.Table]
	if !ok {
		return nil
	}

	var rows []client.Row
	for _, id := range t.order {
		row := t.rows[id]
		if matches(row, q.Predicates) {
			rows = append(rows, row)
		}
	}

	if q.OrderBy != nil {
		field, desc := q.OrderBy.Field, q.OrderBy.Descending
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return sortLess(rows[j], rows[i], field)
			}
			return sortLess(rows[i], rows[j], field)
		})
	}

	return slice(rows, q.Offset, q.Limit)
}

// slice applies offset then limit to an ordered result.
func slice(rows []client.Row, offset, limit *int) []client.Row {
	if offset != nil {
		n := *offset
		if n >= len(rows) {
			return nil
		}
		if n > 0 {
			rows = rows[n:]
		}
	}
	if limit != nil && *limit >= 0 && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}
