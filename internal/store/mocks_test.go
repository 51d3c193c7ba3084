package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// assign copies each value into the matching Scan destination
func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, val := range values {
		v := reflect.ValueOf(dest[i]).Elem()
		if val == nil {
			v.Set(reflect.Zero(v.Type()))
			continue
		}
		v.Set(reflect.ValueOf(val))
	}
	return nil
}

type MockPgPool struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &MockPgRows{}, nil
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, sql, args...)
	}
	return &MockPgRow{}
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

// MockPgRows serves a fixed result set
type MockPgRows struct {
	pgx.Rows
	Data [][]any
	curr int
}

func (r *MockPgRows) Close()     {}
func (r *MockPgRows) Err() error { return nil }
func (r *MockPgRows) Next() bool {
	r.curr++
	return r.curr <= len(r.Data)
}
func (r *MockPgRows) Scan(dest ...any) error { return assign(dest, r.Data[r.curr-1]) }

type MockPgRow struct {
	Values []any
	Err    error
}

func (r *MockPgRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(dest, r.Values)
}

// MockSQL implements SQLQuerier over a fixed result set
type MockSQL struct {
	QueryRowsFunc func(ctx context.Context, query string, args ...any) (SQLRows, error)
}

func (m *MockSQL) QueryRows(ctx context.Context, query string, args ...any) (SQLRows, error) {
	return m.QueryRowsFunc(ctx, query, args...)
}

type MockSQLRows struct {
	Data    [][]any
	ScanErr error
	curr    int
	closed  bool
}

func (r *MockSQLRows) Next() bool {
	r.curr++
	return r.curr <= len(r.Data)
}

func (r *MockSQLRows) Scan(dest ...any) error {
	if r.ScanErr != nil {
		return r.ScanErr
	}
	return assign(dest, r.Data[r.curr-1])
}

func (r *MockSQLRows) Close() error {
	r.closed = true
	return nil
}

func (r *MockSQLRows) Err() error { return nil }

// MockConn implements the parts of driver.Conn the store uses
type MockConn struct {
	driver.Conn
	Data      [][]any
	LastQuery string
	Batch     *MockBatch
	SendErr   error
}

func (m *MockConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	m.LastQuery = query
	return &MockRows{data: m.Data}, nil
}

func (m *MockConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.Batch = &MockBatch{query: query, sendErr: m.SendErr}
	return m.Batch, nil
}

type MockRows struct {
	driver.Rows
	data [][]any
	curr int
}

func (m *MockRows) Next() bool {
	m.curr++
	return m.curr <= len(m.data)
}
func (m *MockRows) Scan(dest ...interface{}) error { return assign(dest, m.data[m.curr-1]) }
func (m *MockRows) Close() error                   { return nil }
func (m *MockRows) Err() error                     { return nil }

type MockBatch struct {
	driver.Batch
	query   string
	rows    [][]any
	sent    bool
	aborted bool
	sendErr error
}

func (m *MockBatch) Append(v ...interface{}) error {
	m.rows = append(m.rows, v)
	return nil
}
func (m *MockBatch) Send() error {
	m.sent = true
	return m.sendErr
}
func (m *MockBatch) Abort() error {
	m.aborted = true
	return nil
}
