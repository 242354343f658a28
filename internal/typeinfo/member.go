// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
)

// Member reads and writes a mapped value on a record instance. The instance is
// passed in on every call as a pointer to the record and is never retained.
type Member interface {
	// Get returns the current value of the member on rec.
	Get(rec reflect.Value) any

	// ScanTarget returns a destination for rows.Scan along with a function
	// that stores the scanned value into rec. If the scanned column was NULL
	// store leaves the member untouched.
	ScanTarget(rec reflect.Value) (dest any, store func() error, err error)

	// String returns a natural language description of the member for use in
	// error messages.
	String() string
}

// structField locates a tagged field of a struct type.
type structField struct {
	// name is the member name within the struct.
	name string

	// structType is the reflected type of the struct containing this field.
	structType reflect.Type

	// index for reflect.Value.FieldByIndex.
	index []int
}

var _ Member = (*structField)(nil)

// Get returns the value of the field on the struct pointed to by rec.
func (f *structField) Get(rec reflect.Value) any {
	return reflect.Indirect(rec).FieldByIndex(f.index).Interface()
}

// ScanTarget returns a pointer to a nil pointer of the field type. rows.Scan
// leaves it nil for NULL and otherwise allocates and converts the driver value
// into it, after which store copies it into the field.
func (f *structField) ScanTarget(rec reflect.Value) (any, func() error, error) {
	s := reflect.Indirect(rec)
	if s.Type() != f.structType {
		return nil, nil, fmt.Errorf("internal error: %s used with value of type %s", f, s.Type())
	}
	val := s.FieldByIndex(f.index)
	if !val.CanSet() {
		return nil, nil, fmt.Errorf("internal error: cannot set field %s of struct %s", f.name, f.structType.Name())
	}

	scanVal := reflect.New(reflect.PointerTo(val.Type()))
	store := func() error {
		if scanVal.Elem().IsNil() {
			return nil
		}
		val.Set(scanVal.Elem().Elem())
		return nil
	}
	return scanVal.Interface(), store, nil
}

// String returns a natural language description of the struct field for use in
// error messages.
func (f *structField) String() string {
	return "field \"" + f.name + "\" of struct \"" + f.structType.Name() + "\""
}

// funcMember is a member described by an accessor pair rather than by a struct
// field. The accessors receive the pointer to the record.
type funcMember struct {
	name string
	get  func(rec reflect.Value) any
	set  func(rec reflect.Value, v any) error
}

var _ Member = (*funcMember)(nil)

// NewFuncMember returns a Member backed by the given accessor pair. set is
// passed the driver value as returned by database/sql and is never called
// for NULL.
func NewFuncMember(name string, get func(rec reflect.Value) any, set func(rec reflect.Value, v any) error) Member {
	return &funcMember{name: name, get: get, set: set}
}

func (m *funcMember) Get(rec reflect.Value) any {
	return m.get(rec)
}

func (m *funcMember) ScanTarget(rec reflect.Value) (any, func() error, error) {
	var v any
	store := func() error {
		if v == nil {
			return nil
		}
		if err := m.set(rec, v); err != nil {
			return fmt.Errorf("cannot set %s: %s", m, err)
		}
		return nil
	}
	return &v, store, nil
}

func (m *funcMember) String() string {
	return "column \"" + m.name + "\""
}
