// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package hyena

import (
	"context"
	"database/sql"
)

// Conn is a single connection to the database, used for exactly one query
// and then closed. *sql.Conn satisfies Conn.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Source opens connections to the database. A [DB] opens one connection per
// operation and closes it before the operation returns. Implementations must
// be safe for concurrent use if the DB is.
type Source interface {
	Open(ctx context.Context) (Conn, error)
}

// poolSource takes connections from a database/sql pool. Closing a
// connection returns it to the pool.
type poolSource struct {
	sqldb *sql.DB
}

// PoolSource returns a Source that takes connections from sqldb.
func PoolSource(sqldb *sql.DB) Source {
	return &poolSource{sqldb: sqldb}
}

func (s *poolSource) Open(ctx context.Context) (Conn, error) {
	return s.sqldb.Conn(ctx)
}

// dsnSource opens the data source anew for every connection, and closes it
// again along with the connection.
type dsnSource struct {
	driverName     string
	dataSourceName string
}

// DSNSource returns a Source that opens a new database handle from the driver
// name and data source name on every Open, and closes it again when the
// connection is closed.
func DSNSource(driverName, dataSourceName string) Source {
	return &dsnSource{driverName: driverName, dataSourceName: dataSourceName}
}

func (s *dsnSource) Open(ctx context.Context) (Conn, error) {
	sqldb, err := sql.Open(s.driverName, s.dataSourceName)
	if err != nil {
		return nil, err
	}
	conn, err := sqldb.Conn(ctx)
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	return &dsnConn{Conn: conn, sqldb: sqldb}, nil
}

// dsnConn closes its database handle along with the connection.
type dsnConn struct {
	*sql.Conn
	sqldb *sql.DB
}

func (c *dsnConn) Close() error {
	err := c.Conn.Close()
	if dberr := c.sqldb.Close(); err == nil {
		err = dberr
	}
	return err
}
