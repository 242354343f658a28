// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package hyena_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"

	"github.com/canonical/hyena"
	"github.com/canonical/hyena/dialect"
)

// This file contains the connection sources and the stub driver used to
// observe how hyena opens and releases connections, and to control exactly
// what the database returns.

// countingSource wraps a Source and counts the connections opened and closed
// through it.
type countingSource struct {
	hyena.Source

	mu     sync.Mutex
	opened int
	closed int
}

func (s *countingSource) Open(ctx context.Context) (hyena.Conn, error) {
	conn, err := s.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &countingConn{Conn: conn, source: s}, nil
}

// counts returns the number of connections opened and closed so far.
func (s *countingSource) counts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

type countingConn struct {
	hyena.Conn
	source *countingSource
}

func (c *countingConn) Close() error {
	c.source.mu.Lock()
	c.source.closed++
	c.source.mu.Unlock()
	return c.Conn.Close()
}

// refusingSource fails every Open and remembers that it was asked.
type refusingSource struct {
	mu    sync.Mutex
	asked int
}

var errRefused = errors.New("connection source must not be used")

func (s *refusingSource) Open(ctx context.Context) (hyena.Conn, error) {
	s.mu.Lock()
	s.asked++
	s.mu.Unlock()
	return nil, errRefused
}

// stubHandler answers a query run on the stub driver.
type stubHandler func(query string, args []driver.NamedValue) (cols []string, rows [][]driver.Value, err error)

// stubConnector opens stubConns answering every query with its handler.
type stubConnector struct {
	h stubHandler
}

func (c *stubConnector) Connect(context.Context) (driver.Conn, error) { return &stubConn{h: c.h}, nil }
func (c *stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("stubDriver.Open should not be called; use sql.OpenDB with connector")
}

type stubConn struct {
	h stubHandler
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *stubConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cols, data, err := c.h(query, args)
	if err != nil {
		return nil, err
	}
	return &stubRows{cols: cols, data: data}, nil
}

type stubRows struct {
	cols []string
	data [][]driver.Value
	i    int
}

func (r *stubRows) Columns() []string { return append([]string(nil), r.cols...) }
func (r *stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	row := r.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

// newStubDB returns a DB on the stub driver, along with the counting source
// its connections are opened through.
func newStubDB(h stubHandler) (*hyena.DB, *countingSource, *sql.DB) {
	sqldb := sql.OpenDB(&stubConnector{h: h})
	source := &countingSource{Source: hyena.PoolSource(sqldb)}
	return hyena.NewDBFromSource(source, dialect.SQLite), source, sqldb
}
