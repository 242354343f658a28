// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeRow scans its values into the destinations the way database/sql does
// for the destination kinds Hydrate uses: *any and pointers to nil pointers.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		v := r.values[i]
		if sink, ok := d.(*any); ok {
			*sink = v
			continue
		}
		if v == nil {
			continue
		}
		ptr := reflect.ValueOf(d).Elem()
		src := reflect.ValueOf(v)
		if !src.Type().ConvertibleTo(ptr.Type().Elem()) {
			return fmt.Errorf("cannot convert column %d of type %T", i, v)
		}
		ptr.Set(reflect.New(ptr.Type().Elem()))
		ptr.Elem().Set(src.Convert(ptr.Type().Elem()))
	}
	return nil
}

type hydrated struct {
	ID    int     `db:"id,pk"`
	Name  string  `db:"name"`
	Score float64 `db:"score"`
}

func resolveHydrated(t *testing.T) *Descriptor {
	d, err := Resolve(reflect.TypeOf(hydrated{}))
	if !assert.Nil(t, err) {
		t.FailNow()
	}
	return d
}

func TestHydrateByName(t *testing.T) {
	d := resolveHydrated(t)

	rec := d.New()
	row := fakeRow{values: []any{2.5, "Ann", int64(1)}}
	err := Hydrate(row, []string{"score", "name", "id"}, d, rec)
	assert.Nil(t, err)
	assert.Equal(t, hydrated{ID: 1, Name: "Ann", Score: 2.5}, rec.Elem().Interface())
}

func TestHydrateCaseInsensitive(t *testing.T) {
	d := resolveHydrated(t)

	rec := d.New()
	row := fakeRow{values: []any{int64(7), "Bo", 1.0}}
	err := Hydrate(row, []string{"ID", "Name", "SCORE"}, d, rec)
	assert.Nil(t, err)
	assert.Equal(t, hydrated{ID: 7, Name: "Bo", Score: 1.0}, rec.Elem().Interface())
}

func TestHydrateExactMatchFirst(t *testing.T) {
	type clash struct {
		Lower string `db:"name"`
		Upper string `db:"NAME"`
	}
	d, err := Resolve(reflect.TypeOf(clash{}))
	assert.Nil(t, err)

	rec := d.New()
	row := fakeRow{values: []any{"upper", "lower"}}
	err = Hydrate(row, []string{"NAME", "name"}, d, rec)
	assert.Nil(t, err)
	assert.Equal(t, clash{Lower: "lower", Upper: "upper"}, rec.Elem().Interface())
}

func TestHydrateExtraColumns(t *testing.T) {
	d := resolveHydrated(t)

	rec := d.New()
	row := fakeRow{values: []any{"x", int64(1), "Ann", 0.5, int64(99)}}
	err := Hydrate(row, []string{"extra", "id", "name", "score", "id"}, d, rec)
	assert.Nil(t, err)
	assert.Equal(t, hydrated{ID: 1, Name: "Ann", Score: 0.5}, rec.Elem().Interface())
}

func TestHydrateSharedColumn(t *testing.T) {
	type shared struct {
		Name  string `db:"name"`
		Alias string `db:"name"`
		ID    int    `db:"id"`
	}
	d, err := Resolve(reflect.TypeOf(shared{}))
	assert.Nil(t, err)

	rec := d.New()
	row := fakeRow{values: []any{"Ann", int64(1), "Ann"}}
	err = Hydrate(row, []string{"name", "id", "NAME"}, d, rec)
	assert.Nil(t, err)
	assert.Equal(t, shared{Name: "Ann", Alias: "Ann", ID: 1}, rec.Elem().Interface())

	// A single occurrence only serves the first field.
	err = Hydrate(fakeRow{values: []any{"Bo", int64(2)}}, []string{"name", "id"}, d, d.New())
	assert.EqualError(t, err, `column "name" not found in result for field "Alias" of struct "shared"`)
}

func TestHydrateNullKeepsValue(t *testing.T) {
	d := resolveHydrated(t)

	rec := reflect.ValueOf(&hydrated{ID: 1, Name: "default", Score: 9})
	row := fakeRow{values: []any{int64(3), nil, nil}}
	err := Hydrate(row, []string{"id", "name", "score"}, d, rec)
	assert.Nil(t, err)
	assert.Equal(t, hydrated{ID: 3, Name: "default", Score: 9}, rec.Elem().Interface())
}

func TestHydrateMissingColumn(t *testing.T) {
	d := resolveHydrated(t)

	rec := d.New()
	row := fakeRow{values: []any{int64(1), "Ann"}}
	err := Hydrate(row, []string{"id", "name"}, d, rec)
	assert.EqualError(t, err, `column "score" not found in result for field "Score" of struct "hydrated"`)
}

func TestHydrateScanError(t *testing.T) {
	d := resolveHydrated(t)

	scanErr := errors.New("scan failed")
	err := Hydrate(fakeRow{values: []any{nil, nil, nil}, err: scanErr}, []string{"id", "name", "score"}, d, d.New())
	assert.Equal(t, scanErr, err)
}

func TestHydrateWrongRecord(t *testing.T) {
	d := resolveHydrated(t)

	type other struct{ ID int }
	err := Hydrate(fakeRow{}, []string{"id", "name", "score"}, d, reflect.ValueOf(&other{}))
	assert.ErrorContains(t, err, "internal error")
}

func TestHydrateFuncMembers(t *testing.T) {
	type pair struct {
		key string
		val int64
	}
	d := &Descriptor{
		Type:  reflect.TypeOf(pair{}),
		Table: "pairs",
	}
	d.Fields = []*Field{{
		Column: "k",
		Member: NewFuncMember("k",
			func(rec reflect.Value) any { return rec.Interface().(*pair).key },
			func(rec reflect.Value, v any) error {
				rec.Interface().(*pair).key = v.(string)
				return nil
			}),
	}, {
		Column: "v",
		Member: NewFuncMember("v",
			func(rec reflect.Value) any { return rec.Interface().(*pair).val },
			func(rec reflect.Value, v any) error {
				n, ok := v.(int64)
				if !ok {
					return fmt.Errorf("not an int64: %T", v)
				}
				rec.Interface().(*pair).val = n
				return nil
			}),
	}}

	p := &pair{key: "old", val: 1}
	err := Hydrate(fakeRow{values: []any{"new", nil}}, []string{"k", "v"}, d, reflect.ValueOf(p))
	assert.Nil(t, err)
	assert.Equal(t, &pair{key: "new", val: 1}, p)
	assert.Equal(t, "new", d.Fields[0].Member.Get(reflect.ValueOf(p)))

	err = Hydrate(fakeRow{values: []any{"x", "y"}}, []string{"k", "v"}, d, reflect.ValueOf(p))
	assert.EqualError(t, err, `cannot set column "v": not an int64: string`)
}
