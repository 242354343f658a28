// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package querybuilder generates the SQL run by hyena from a resolved
// descriptor. It does not check the descriptor; callers must make sure it has
// a table, at least one field and, for key lookups, a primary key.
package querybuilder

import (
	"bytes"
	"database/sql"

	"github.com/canonical/hyena/dialect"
	"github.com/canonical/hyena/internal/typeinfo"
)

// Param is a bound parameter of a query.
type Param struct {
	Name  string
	Value any
}

// Query is generated SQL along with its bound parameters.
type Query struct {
	SQL    string
	Params []Param
}

// Args returns the query parameters as arguments for database/sql. Named
// dialects get sql.NamedArg values, positional dialects get the bare values
// in order.
func (q Query) Args(d dialect.Dialect) []any {
	args := make([]any, 0, len(q.Params))
	for _, p := range q.Params {
		if d.Named() {
			args = append(args, sql.Named(p.Name, p.Value))
		} else {
			args = append(args, p.Value)
		}
	}
	return args
}

// SelectAll returns the query reading every row of the descriptor's table:
//
//	SELECT col1,col2 FROM table
func SelectAll(desc *typeinfo.Descriptor) Query {
	var b bytes.Buffer
	writeSelect(&b, desc)
	return Query{SQL: b.String()}
}

// SelectByKey returns the query reading the rows whose primary key equals key.
// The key is bound verbatim to a single parameter named after the primary
// key column.
//
//	SELECT col1,col2 FROM table WHERE pk = :pk
func SelectByKey(desc *typeinfo.Descriptor, d dialect.Dialect, key any) Query {
	var b bytes.Buffer
	writeSelect(&b, desc)
	pk := desc.PrimaryKey.Column
	b.WriteString(" WHERE ")
	b.WriteString(pk)
	b.WriteString(" = ")
	b.WriteString(d.Placeholder(pk, 1))
	return Query{
		SQL:    b.String(),
		Params: []Param{{Name: pk, Value: key}},
	}
}

func writeSelect(b *bytes.Buffer, desc *typeinfo.Descriptor) {
	b.WriteString("SELECT ")
	for i, f := range desc.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Column)
	}
	b.WriteString(" FROM ")
	b.WriteString(desc.Table)
}
