package sqldb_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// fakeConnector hands out a single fakeConn that records what the statement cache does to it.
type fakeConnector struct {
	conn *fakeConn
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{conn: &fakeConn{open: map[string]int{}}}
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *fakeConnector) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use the connector") }

type fakeConn struct {
	mu         sync.Mutex
	prepares   int
	closes     int
	open       map[string]int
	failPrep   error
	failClose  error
	lastExec   string
	lastValues []driver.Value
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failPrep != nil {
		return nil, c.failPrep
	}
	c.prepares++
	c.open[query]++
	return &fakeStmt{conn: c, query: query}, nil
}

func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

func (c *fakeConn) openStatements() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, count := range c.open {
		n += count
	}
	return n
}

func (c *fakeConn) counts() (prepares, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepares, c.closes
}

type fakeStmt struct {
	conn  *fakeConn
	query string
}

func (s *fakeStmt) Close() error {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	s.conn.closes++
	s.conn.open[s.query]--
	return s.conn.failClose
}

func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()

	s.conn.lastExec = s.query
	s.conn.lastValues = args
	return driver.RowsAffected(len(args)), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &fakeRows{values: args}, nil
}

// fakeRows echoes the query arguments back as one row per argument.
type fakeRows struct {
	values []driver.Value
	pos    int
}

func (r *fakeRows) Columns() []string { return []string{"value"} }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	dest[0] = r.values[r.pos]
	r.pos++
	return nil
}
