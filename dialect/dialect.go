// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package dialect describes how bound parameters are written for the
// relational backends hyena can query. Importing it registers the drivers of
// all of them.
package dialect

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"
)

// Dialect is the bound parameter syntax of a backend.
type Dialect struct {
	// Name identifies the dialect.
	Name string

	// prefix is written before the parameter name by named dialects.
	prefix string

	// positional is the placeholder format for dialects without named
	// parameters. "%d" is replaced with the 1-based parameter position.
	positional string
}

var (
	// SQLite writes parameters as :name.
	SQLite = Dialect{Name: "sqlite3", prefix: ":"}
	// SQLServer writes parameters as @name.
	SQLServer = Dialect{Name: "sqlserver", prefix: "@"}
	// Postgres writes parameters as $1, $2, ...
	Postgres = Dialect{Name: "postgres", positional: "$%d"}
	// MySQL writes parameters as ?.
	MySQL = Dialect{Name: "mysql", positional: "?"}
)

// Named reports whether the dialect binds parameters by name. Arguments for
// named dialects are passed to the driver as sql.NamedArg values.
func (d Dialect) Named() bool {
	return d.positional == ""
}

// Placeholder returns the text standing for the parameter called name at the
// 1-based position pos.
func (d Dialect) Placeholder(name string, pos int) string {
	if d.Named() {
		return d.prefix + name
	}
	return strings.Replace(d.positional, "%d", strconv.Itoa(pos), 1)
}

func (d Dialect) String() string {
	return d.Name
}

// ForDriver returns the dialect of a database/sql driver name as passed to
// sql.Open.
func ForDriver(driverName string) (Dialect, error) {
	switch strings.ToLower(driverName) {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driverName)
}

// Detect returns the dialect of a registered driver implementation. Unknown
// drivers get the SQLite dialect, which writes the :name syntax accepted by
// most drivers that support named parameters.
func Detect(drv driver.Driver) Dialect {
	switch drv.(type) {
	case *sqlite3.SQLiteDriver:
		return SQLite
	case *pq.Driver:
		return Postgres
	case *stdlib.Driver:
		return Postgres
	case *mysql.MySQLDriver:
		return MySQL
	case *mssql.Driver:
		return SQLServer
	}
	return SQLite
}
