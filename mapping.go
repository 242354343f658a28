// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package hyena

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/canonical/hyena/internal/typeinfo"
)

// Mapper is implemented by record types that describe their mapping with a
// [Mapping] instead of struct tags. Mapping is called on the zero value of
// the type, or on a pointer to it, and must not depend on the receiver.
type Mapper[T any] interface {
	Mapping() Mapping[T]
}

// Mapping is an explicit description of how a record type T maps onto a
// table.
type Mapping[T any] struct {
	// Table is the name of the table.
	Table string

	// Columns are the mapped members, in the order they are selected.
	Columns []Column[T]

	// New constructs a record with its default values. A Mapping without
	// New cannot be loaded.
	New func() T
}

// Column is one mapped member of a record type T.
type Column[T any] struct {
	// Name is the name of the column.
	Name string

	// PrimaryKey marks the column as the key used by [LoadByKey]. If more
	// than one column is marked, the first one is used.
	PrimaryKey bool

	// Get returns the value of the member.
	Get func(rec *T) any

	// Set stores a column value into the member. The value is the one
	// returned by the driver, without conversion. Set is not called for
	// NULL.
	Set func(rec *T, v any) error
}

// descriptor converts the mapping into a type descriptor.
func (m Mapping[T]) descriptor() (*typeinfo.Descriptor, error) {
	d := &typeinfo.Descriptor{
		Type:  reflect.TypeOf((*T)(nil)).Elem(),
		Table: m.Table,
	}
	for i, c := range m.Columns {
		if c.Name == "" {
			return nil, errors.Errorf("column %d of mapping for %s has no name", i, d.TypeName())
		}
		if !typeinfo.ValidColumnName(c.Name) {
			return nil, errors.Errorf("invalid column name %q in mapping for %s", c.Name, d.TypeName())
		}
		if c.Get == nil || c.Set == nil {
			return nil, errors.Errorf("column %q of mapping for %s needs both Get and Set", c.Name, d.TypeName())
		}
		get, set := c.Get, c.Set
		field := &typeinfo.Field{
			Column: c.Name,
			Member: typeinfo.NewFuncMember(c.Name,
				func(rec reflect.Value) any {
					return get(rec.Interface().(*T))
				},
				func(rec reflect.Value, v any) error {
					return set(rec.Interface().(*T), v)
				},
			),
		}
		d.Fields = append(d.Fields, field)
		if c.PrimaryKey && d.PrimaryKey == nil {
			d.PrimaryKey = field
		}
	}
	if m.New != nil {
		newRec := m.New
		d.New = func() reflect.Value {
			rec := new(T)
			*rec = newRec()
			return reflect.ValueOf(rec)
		}
	}
	return d, nil
}

// describer is implemented by every Mapping, whatever its record type.
type describer interface {
	descriptor() (*typeinfo.Descriptor, error)
}

// resolve returns the descriptor of T, from its Mapping if it has one and from
// its struct tags otherwise. For pointer record types the Mapping of the
// element type is used.
func resolve[T any]() (*typeinfo.Descriptor, error) {
	var zero T
	if m, ok := any(zero).(Mapper[T]); ok {
		return m.Mapping().descriptor()
	}
	if m, ok := any(&zero).(Mapper[T]); ok {
		return m.Mapping().descriptor()
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Pointer {
		if m, ok := elemMapping(t.Elem()); ok {
			return m.descriptor()
		}
	}
	return typeinfo.Resolve(t)
}

// elemMapping returns the Mapping of the record type t, if a pointer to t
// implements Mapper.
func elemMapping(t reflect.Type) (describer, bool) {
	method := reflect.New(t).MethodByName("Mapping")
	if !method.IsValid() || method.Type().NumIn() != 0 || method.Type().NumOut() != 1 {
		return nil, false
	}
	m, ok := method.Call(nil)[0].Interface().(describer)
	return m, ok
}

// instance returns the record pointed to by rec as a T. rec points either to a
// T or, for pointer record types, is itself a T.
func instance[T any](rec reflect.Value) T {
	if v, ok := rec.Interface().(T); ok {
		return v
	}
	return rec.Elem().Interface().(T)
}
