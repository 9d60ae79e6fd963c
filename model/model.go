// Package model binds typed entity structs to the query-set layer.
//
// A Manager is the query entry point for one entity type: it scopes
// query sets to the entity's table and a configured client, and owns
// the instance-level persistence verbs (Create, Save, Delete). The
// client is explicit per-manager configuration; substituting the
// in-memory client for tests is a constructor option, not hidden
// process-wide state, and a manager built without options falls back
// to a remote client constructed from loaded configuration.
package model

import (
	"context"
	"fmt"

	"github.com/roach88/rowset/client"
	"github.com/roach88/rowset/config"
	"github.com/roach88/rowset/predicate"
	"github.com/roach88/rowset/queryset"
	"github.com/roach88/rowset/restclient"
)

// Entity is the contract an entity struct satisfies to be managed:
// integer primary-key access. Embedding Base provides it.
type Entity interface {
	// PK returns the assigned primary key, or 0 when unsaved.
	PK() int64

	// SetPK records the backend-assigned primary key.
	SetPK(int64)
}

// Base is the embeddable primary-key fragment of an entity struct.
//
//	type User struct {
//		model.Base
//		Name string `json:"name" validate:"required"`
//	}
type Base struct {
	ID int64 `json:"id,omitempty"`
}

// PK implements Entity.
func (b *Base) PK() int64 { return b.ID }

// SetPK implements Entity.
func (b *Base) SetPK(id int64) { b.ID = id }

// Manager is the query entry point for one entity type over one table.
type Manager[T Entity] struct {
	table   string
	client  client.Client
	adapter queryset.Adapter[T]
}

// Option customizes a Manager.
type Option func(*settings)

type settings struct {
	client client.Client
}

// WithClient substitutes the row-store client, e.g. the in-memory
// client for tests. Every query set the manager hands out afterwards
// dispatches through it.
func WithClient(c client.Client) Option {
	return func(s *settings) { s.client = c }
}

// New creates a manager for table, hydrating rows through adapter.
// Without WithClient, the remote client is constructed from loaded
// configuration; missing configuration is an error here, not at first
// query.
func New[T Entity](table string, adapter queryset.Adapter[T], opts ...Option) (*Manager[T], error) {
	if table == "" {
		return nil, fmt.Errorf("model: empty table name")
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if s.client == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("model: default client for table %q: %w", table, err)
		}
		s.client = restclient.New(cfg)
	}

	return &Manager[T]{table: table, client: s.client, adapter: adapter}, nil
}

// Objects returns a fresh, empty query set scoped to the manager's
// table and client.
func (m *Manager[T]) Objects() *queryset.QuerySet[T] {
	return queryset.New(m.table, m.client, m.adapter)
}

// Create inserts one new row built from fields and returns the
// hydrated entity carrying its assigned id.
func (m *Manager[T]) Create(ctx context.Context, fields client.Row) (T, error) {
	return m.Objects().Create(ctx, fields)
}

// Save persists an entity: insert when it has no assigned id, update
// targeted at its own id otherwise. Either way the returned entity is
// re-hydrated from the backend's echo, so backend-side defaults are
// visible to the caller.
func (m *Manager[T]) Save(ctx context.Context, e T) (T, error) {
	var zero T

	// ToRow already excludes the primary key; the row is ready to send.
	row, err := m.adapter.ToRow(e)
	if err != nil {
		return zero, err
	}

	if e.PK() == 0 {
		inserted, err := m.client.Insert(ctx, m.table, row)
		if err != nil {
			return zero, err
		}
		return m.adapter.FromRow(inserted)
	}

	rows, err := m.client.Update(ctx, m.pkQuery(e.PK()), row)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, &queryset.NotFoundError{Table: m.table, Lookups: queryset.Lookups{client.PKColumn: e.PK()}}
	}
	return m.adapter.FromRow(rows[0])
}

// Delete removes the entity's own row. Deleting an unsaved entity is a
// no-op.
func (m *Manager[T]) Delete(ctx context.Context, e T) error {
	if e.PK() == 0 {
		return nil
	}
	_, err := m.client.Delete(ctx, m.pkQuery(e.PK()))
	return err
}

// pkQuery targets exactly one row by primary key.
func (m *Manager[T]) pkQuery(id int64) client.Query {
	return client.Query{
		Table: m.table,
		Predicates: []predicate.Predicate{
			{Field: client.PKColumn, Op: predicate.OpEq, Value: id},
		},
	}
}
