// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Table is a marker type. A field of this type carries the table annotation
// of the struct that declares it in its "db" tag:
//
//	type User struct {
//		_    typeinfo.Table `db:"Users"`
//		ID   int            `db:"UserId,pk"`
//	}
type Table struct{}

// Tabler is implemented by record types that name their table with a method
// instead of a Table marker field.
type Tabler interface {
	TableName() string
}

// Defaulter is implemented by record types whose constructor assigns values
// other than the zero value. SetDefaults is called on every new instance
// before it is hydrated.
type Defaulter interface {
	SetDefaults()
}

var (
	tableType     = reflect.TypeOf(Table{})
	tablerType    = reflect.TypeOf((*Tabler)(nil)).Elem()
	defaulterType = reflect.TypeOf((*Defaulter)(nil)).Elem()
)

// Resolve inspects the declared members of t and returns its Descriptor.
// Pointer types are resolved through to their element type. Types that are
// not structs resolve to an empty Descriptor.
//
// Resolve does not check that the Descriptor is usable. It only returns an
// error if a "db" tag cannot be parsed.
func Resolve(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{Type: t}
	if t == nil {
		return d, nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		d.Type = t
	}
	if t.Kind() != reflect.Struct {
		return d, nil
	}

	r := resolver{structType: t, d: d}
	if err := r.walk(t, nil); err != nil {
		return nil, err
	}
	if !r.tableFound && reflect.PointerTo(t).Implements(tablerType) {
		d.Table = reflect.New(t).Interface().(Tabler).TableName()
	}

	d.New = func() reflect.Value {
		v := reflect.New(t)
		if v.Type().Implements(defaulterType) {
			v.Interface().(Defaulter).SetDefaults()
		}
		return v
	}
	return d, nil
}

// resolver accumulates the descriptor while walking a struct and the structs
// embedded in it.
type resolver struct {
	structType reflect.Type
	d          *Descriptor
	tableFound bool
}

func (r *resolver) walk(t reflect.Type, base []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), base...), i)
		tag := f.Tag.Get("db")

		if f.Type == tableType {
			// The first table annotation found wins.
			if tag != "" && !r.tableFound {
				r.d.Table = tag
				r.tableFound = true
			}
			continue
		}
		if tag == "-" {
			continue
		}
		// Fields without a "db" tag are outside of hyena's remit, with the
		// exception of embedded structs whose fields are mapped in place.
		if tag == "" {
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				if err := r.walk(f.Type, index); err != nil {
					return err
				}
			}
			continue
		}
		if !f.IsExported() {
			return fmt.Errorf("field %q of struct %s not exported", f.Name, r.structType.Name())
		}

		column, pk, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("cannot parse tag for field %s.%s: %s", r.structType.Name(), f.Name, err)
		}
		field := &Field{
			Column: column,
			Member: &structField{
				name:       f.Name,
				structType: r.structType,
				index:      index,
			},
		}
		r.d.Fields = append(r.d.Fields, field)
		// More than one key field is not rejected; the first one declared is
		// used.
		if pk && r.d.PrimaryKey == nil {
			r.d.PrimaryKey = field
		}
	}
	return nil
}

// validColNameRx matches the column names accepted in "db" tags. Column names
// double as bound parameter names, so they must be plain identifiers.
var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// ValidColumnName reports whether name can be used as a column name.
func ValidColumnName(name string) bool {
	return validColNameRx.MatchString(name)
}

// parseTag parses the input tag string and returns its column name and
// whether it contains the "pk" flag.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var pk bool
	if len(options) > 1 {
		for _, flag := range options[1:] {
			if flag == "pk" {
				pk = true
			} else {
				return "", false, fmt.Errorf("unsupported flag %q in tag %q", flag, tag)
			}
		}
	}

	name := options[0]
	if len(name) == 0 {
		return "", false, fmt.Errorf("empty db tag")
	}

	if !ValidColumnName(name) {
		return "", false, fmt.Errorf("invalid column name in 'db' tag: %q", name)
	}

	return name, pk, nil
}
