// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package hyena

import (
	"context"
	"database/sql"
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/canonical/hyena/config"
	"github.com/canonical/hyena/dialect"
	"github.com/canonical/hyena/internal/querybuilder"
	"github.com/canonical/hyena/internal/typeinfo"
)

// Table is the marker type carrying the table annotation of a record type in
// its "db" tag:
//
//	type User struct {
//		_    hyena.Table `db:"Users"`
//		ID   int         `db:"UserId,pk"`
//		Name string      `db:"UserName"`
//	}
type Table = typeinfo.Table

// Tabler is implemented by record types that name their table with a method
// instead of a [Table] field. A Table field takes precedence.
type Tabler = typeinfo.Tabler

// Defaulter is implemented by record types whose fields have defaults other
// than their zero values. SetDefaults is called on every record hyena
// constructs, before it is filled from a row. Columns that are NULL keep the
// default.
type Defaulter = typeinfo.Defaulter

var (
	// ErrMissingFieldNames is returned for record types without mapped
	// fields.
	ErrMissingFieldNames = errors.New("no mapped fields")
	// ErrMissingTableName is returned for record types without a table name.
	ErrMissingTableName = errors.New("missing table name")
	// ErrMissingConstructor is returned for record types that hyena cannot
	// construct.
	ErrMissingConstructor = errors.New("missing constructor")
	// ErrMissingPrimaryKey is returned by key lookups on record types
	// without a primary key.
	ErrMissingPrimaryKey = errors.New("missing primary key")
)

// DB runs queries for record types against a database. It holds no state
// besides its connection source and is safe for concurrent use as far as the
// source is.
type DB struct {
	source  Source
	dialect dialect.Dialect

	// sqldb is the pool the DB was created from, if any.
	sqldb *sql.DB
}

// NewDB creates a new [DB] taking connections from the pool of sqldb. The
// dialect is chosen from the driver of sqldb.
func NewDB(sqldb *sql.DB) *DB {
	if sqldb == nil {
		return nil
	}
	return &DB{
		source:  PoolSource(sqldb),
		dialect: dialect.Detect(sqldb.Driver()),
		sqldb:   sqldb,
	}
}

// NewDBFromSource creates a new [DB] that opens its connections from source
// and writes bound parameters for the dialect d.
func NewDBFromSource(source Source, d dialect.Dialect) *DB {
	return &DB{source: source, dialect: d}
}

// Open creates a new [DB] from a driver name and a data source name. Every
// operation opens the data source, runs its query on a single connection and
// closes it again.
func Open(driverName, dataSourceName string) (*DB, error) {
	if !slices.Contains(sql.Drivers(), driverName) {
		return nil, errors.Errorf("unknown driver %q (forgotten import?)", driverName)
	}
	d, err := dialect.ForDriver(driverName)
	if err != nil {
		return nil, err
	}
	return NewDBFromSource(DSNSource(driverName, dataSourceName), d), nil
}

// OpenConfig creates a new [DB] from structured connection settings, see
// [Open].
func OpenConfig(cfg *config.Config) (*DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	return Open(cfg.DriverName(), dsn)
}

// PlainDB returns the underlying database object, or nil if the DB was not
// created with [NewDB].
func (db *DB) PlainDB() *sql.DB {
	return db.sqldb
}

// Dialect returns the dialect bound parameters are written in.
func (db *DB) Dialect() dialect.Dialect {
	return db.dialect
}

// Ping opens a connection, checks it is alive and closes it.
func (db *DB) Ping(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := db.source.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}()
	return conn.PingContext(ctx)
}

// LoadAll returns one T for every row of the table T is mapped to, in the
// order the rows are returned by the database.
//
// T must have at least one mapped field, a table name and a constructor.
// These are checked in that order before the database is touched, failing
// with [ErrMissingFieldNames], [ErrMissingTableName] or
// [ErrMissingConstructor]. Errors from the database are returned unchanged.
func LoadAll[T any](ctx context.Context, db *DB) ([]T, error) {
	d, err := resolve[T]()
	if err != nil {
		return nil, err
	}
	if err := validate(d, false); err != nil {
		return nil, err
	}

	results := []T{}
	err = db.query(ctx, querybuilder.SelectAll(d), func(row typeinfo.Row, cols []string) error {
		rec := d.New()
		if err := typeinfo.Hydrate(row, cols, d, rec); err != nil {
			return err
		}
		results = append(results, instance[T](rec))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// LoadByKey returns the T whose primary key column equals key. key is passed
// to the driver as it is.
//
// If no row matches, a newly constructed T is returned without an error. If
// several rows match, each of them is read into the same record in turn, so
// the last one wins.
//
// T is checked as for [LoadAll], with the addition that a missing primary key
// fails with [ErrMissingPrimaryKey] straight after the field check.
func LoadByKey[T any](ctx context.Context, db *DB, key any) (T, error) {
	var zero T
	d, err := resolve[T]()
	if err != nil {
		return zero, err
	}
	if err := validate(d, true); err != nil {
		return zero, err
	}

	rec := d.New()
	err = db.query(ctx, querybuilder.SelectByKey(d, db.dialect, key), func(row typeinfo.Row, cols []string) error {
		return typeinfo.Hydrate(row, cols, d, rec)
	})
	if err != nil {
		return zero, err
	}
	return instance[T](rec), nil
}

// Refresh reads the row with the same primary key as rec back into rec. The
// key is taken from rec itself. If no row matches, rec is left as it was.
// Columns that are NULL leave the corresponding field unchanged.
//
// T is checked as for [LoadByKey].
func Refresh[T any](ctx context.Context, db *DB, rec *T) error {
	d, err := resolve[T]()
	if err != nil {
		return err
	}
	if err := validate(d, true); err != nil {
		return err
	}
	if rec == nil {
		return errors.Errorf("cannot refresh %s: nil record", d.TypeName())
	}

	target := reflect.ValueOf(rec)
	if target.Elem().Type() != d.Type {
		// T is a pointer to the record.
		target = target.Elem()
		if target.IsNil() {
			return errors.Errorf("cannot refresh %s: nil record", d.TypeName())
		}
	}

	key := d.PrimaryKey.Member.Get(target)
	return db.query(ctx, querybuilder.SelectByKey(d, db.dialect, key), func(row typeinfo.Row, cols []string) error {
		return typeinfo.Hydrate(row, cols, d, target)
	})
}

// validate checks that d can be used to load records. The checks are made in
// a fixed order and the first failure is returned.
func validate(d *typeinfo.Descriptor, needKey bool) error {
	switch {
	case len(d.Fields) == 0:
		return errors.Wrapf(ErrMissingFieldNames, "cannot load %s", d.TypeName())
	case needKey && d.PrimaryKey == nil:
		return errors.Wrapf(ErrMissingPrimaryKey, "cannot load %s", d.TypeName())
	case strings.TrimSpace(d.Table) == "":
		return errors.Wrapf(ErrMissingTableName, "cannot load %s", d.TypeName())
	case d.New == nil:
		return errors.Wrapf(ErrMissingConstructor, "cannot load %s", d.TypeName())
	}
	return nil
}

// query runs q on a connection of its own and calls each for every row
// returned. The rows and the connection are closed on every path out of
// query.
func (db *DB) query(ctx context.Context, q querybuilder.Query, each func(row typeinfo.Row, cols []string) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := db.source.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}()

	rows, err := conn.QueryContext(ctx, q.SQL, q.Args(db.dialect)...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	// A row is only read once Next reports that one is available.
	for rows.Next() {
		if err := each(rows, cols); err != nil {
			return err
		}
	}
	return rows.Err()
}
