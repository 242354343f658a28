// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
	"strings"
)

// Row is the current row of a result set. *sql.Rows satisfies Row.
type Row interface {
	Scan(dest ...any) error
}

// Hydrate scans the current row into the record pointed to by rec. columns
// are the result column names in the order the backend returned them; each is
// matched by name to a field of d, first exactly and then ignoring ASCII case.
// Result columns that match no field are discarded. Every field of d must be
// present in the result.
//
// Values that are NULL leave the corresponding member as it was.
func Hydrate(row Row, columns []string, d *Descriptor, rec reflect.Value) error {
	// Several fields may share a column name; the query then carries the
	// column once per field and each occurrence goes to the next field.
	byName := make(map[string][]*Field, len(d.Fields))
	byFold := make(map[string][]*Field, len(d.Fields))
	for _, f := range d.Fields {
		byName[f.Column] = append(byName[f.Column], f)
		lower := strings.ToLower(f.Column)
		byFold[lower] = append(byFold[lower], f)
	}

	matched := make(map[*Field]bool, len(d.Fields))
	next := func(fields []*Field) *Field {
		for _, f := range fields {
			if !matched[f] {
				return f
			}
		}
		return nil
	}

	dests := make([]any, len(columns))
	stores := make([]func() error, 0, len(d.Fields))
	for i, col := range columns {
		f := next(byName[col])
		if f == nil {
			f = next(byFold[strings.ToLower(col)])
		}
		if f == nil {
			var sink any
			dests[i] = &sink
			continue
		}
		matched[f] = true
		dest, store, err := f.Member.ScanTarget(rec)
		if err != nil {
			return err
		}
		dests[i] = dest
		stores = append(stores, store)
	}
	for _, f := range d.Fields {
		if !matched[f] {
			return fmt.Errorf("column %q not found in result for %s", f.Column, f.Member)
		}
	}

	if err := row.Scan(dests...); err != nil {
		return err
	}
	for _, store := range stores {
		if err := store(); err != nil {
			return err
		}
	}
	return nil
}
