package policycache

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
)

type fakeDriver struct {
	execErr error
	pingErr error

	mu      sync.Mutex
	queries []string
}

func (d *fakeDriver) Open(string) (driver.Conn, error) {
	return &fakeConn{driver: d}, nil
}

func (d *fakeDriver) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.queries...)
}

type fakeConn struct {
	driver *fakeDriver
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not impl") }
func (c *fakeConn) Close() error                        { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("not impl") }

func (c *fakeConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.driver.mu.Lock()
	c.driver.queries = append(c.driver.queries, query)
	c.driver.mu.Unlock()
	return driver.RowsAffected(1), c.driver.execErr
}

func (c *fakeConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return &fakeRows{}, nil
}

func (c *fakeConn) Ping(context.Context) error { return c.driver.pingErr }

type fakeRows struct{}

func (r *fakeRows) Columns() []string              { return []string{"v"} }
func (r *fakeRows) Close() error                   { return nil }
func (r *fakeRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

// postgresFakeDriver is registered under the real dialect name to exercise its schema.
var postgresFakeDriver = &fakeDriver{}

func init() {
	sql.Register("pgfake", &fakeDriver{})
	sql.Register("mysqlfake", &fakeDriver{})
	sql.Register("pgfail", &fakeDriver{execErr: errors.New("boom")})
	sql.Register("postgres", postgresFakeDriver)
	sql.Register("pingfail", &fakeDriver{pingErr: errors.New("ping boom")})
}
