package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/rowset/client"
)

// ValidationError reports an entity rejected by struct validation
// while converting to or from a row. The core propagates it unchanged;
// it never retries or repairs the value.
type ValidationError struct {
	// Entity names the rejected entity type.
	Entity string

	// Err is the underlying validator error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Entity, e.Err)
}

// Unwrap exposes the validator error for errors.Is/As chains.
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation returns true if the error is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// JSONAdapter converts entities through their JSON encoding and
// validates them with struct tags. It is the default Adapter for
// entity structs: column names come from json tags, partial updates
// fall out of omitempty, and `validate` tags gate both directions.
//
// T must be a pointer to a struct embedding Base (or otherwise
// satisfying Entity).
type JSONAdapter[T Entity] struct {
	validate *validator.Validate
	entity   string
}

// NewJSONAdapter creates an adapter for T with a fresh validator.
func NewJSONAdapter[T Entity]() *JSONAdapter[T] {
	var zero T
	name := "entity"
	if t := reflect.TypeOf(zero); t != nil && t.Kind() == reflect.Pointer {
		name = t.Elem().Name()
	}
	return &JSONAdapter[T]{validate: validator.New(), entity: name}
}

// FromRow builds a validated entity from a raw row.
func (a *JSONAdapter[T]) FromRow(row client.Row) (T, error) {
	var zero T

	obj, err := newEntity[T]()
	if err != nil {
		return zero, err
	}

	data, err := json.Marshal(row)
	if err != nil {
		return zero, fmt.Errorf("encode row for %s: %w", a.entity, err)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return zero, &ValidationError{Entity: a.entity, Err: err}
	}

	if err := a.validate.Struct(obj); err != nil {
		return zero, &ValidationError{Entity: a.entity, Err: err}
	}

	return obj, nil
}

// ToRow serializes a validated entity to a raw row. The primary key is
// excluded: inserts let the backend assign it and updates target it
// through predicates, never through the patch body. Unset optional
// fields drop out via omitempty, keeping updates partial.
func (a *JSONAdapter[T]) ToRow(e T) (client.Row, error) {
	if err := a.validate.Struct(e); err != nil {
		return nil, &ValidationError{Entity: a.entity, Err: err}
	}

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.entity, err)
	}

	row := client.Row{}
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", a.entity, err)
	}
	delete(row, client.PKColumn)

	return row, nil
}

// newEntity allocates a fresh instance for T, which must be a pointer
// to a struct type.
func newEntity[T Entity]() (T, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return zero, fmt.Errorf("entity type %T is not a struct pointer", zero)
	}
	return reflect.New(t.Elem()).Interface().(T), nil
}
