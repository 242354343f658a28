// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
)

// Descriptor represents the resolved mapping of a record type onto a table.
type Descriptor struct {
	// Type is the record type the descriptor was resolved from.
	Type reflect.Type

	// Table is the name of the table. It is empty if the type has no table
	// annotation.
	Table string

	// Fields are the mapped members in declaration order.
	Fields []*Field

	// PrimaryKey is the field flagged as the key, or nil.
	PrimaryKey *Field

	// New returns a pointer to a freshly constructed instance of Type. It is
	// nil when the type has no reachable zero-argument constructor.
	New func() reflect.Value
}

// Columns returns the column names of the mapped fields in field order.
func (d *Descriptor) Columns() []string {
	cols := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		cols = append(cols, f.Column)
	}
	return cols
}

// TypeName returns the name of the record type for use in error messages.
func (d *Descriptor) TypeName() string {
	if d.Type == nil {
		return "<nil>"
	}
	if d.Type.Name() != "" {
		return d.Type.Name()
	}
	return d.Type.String()
}

// Field is a single mapped member of a record type.
type Field struct {
	// Column is the name of the column the member is mapped to.
	Column string

	// Member reads and writes the value of the field on an instance.
	Member Member
}
